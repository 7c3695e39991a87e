package config

const (
	defaultOutputRoot           = "~/.local/share/peaceproc/uploads"
	defaultLogDir               = "~/.local/share/peaceproc/logs"
	defaultMusicDir             = "~/.local/share/peaceproc/music_library"
	defaultAPIBind              = "127.0.0.1:8008"
	defaultTextBaseURL          = "https://api.deepseek.com"
	defaultTextModel            = "deepseek-chat"
	defaultTextTimeout          = 120
	defaultImageBaseURL         = "https://dashscope.aliyuncs.com"
	defaultImageModel           = "wanx-v1"
	defaultImageStyle           = "<watercolor>"
	defaultImageSize            = "1024*1024"
	defaultImagePollInterval    = 1
	defaultImageTimeout         = 60
	defaultTTSBaseURL           = "https://api.minimaxi.com"
	defaultTTSModel             = "speech-02-hd"
	defaultTTSVoice             = "English_expressive_narrator"
	defaultTTSSpeed             = 0.83
	defaultTTSTimeout           = 120
	defaultMusicMode            = MusicModeFixed
	defaultMusicTrack           = "瑜伽冥想减压音乐 - Awakening.mp3"
	defaultMusicManifest        = "library.yaml"
	defaultFFmpegBinary         = "ffmpeg"
	defaultFFprobeBinary        = "ffprobe"
	defaultMusicVolume          = 0.4
	defaultMixTimeoutSeconds    = 60
	defaultBranchWorkers        = 3
	defaultScriptCharLimit      = 500
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
)

// Music library modes.
const (
	MusicModeFixed      = "fixed"
	MusicModeClassified = "classified"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputRoot: defaultOutputRoot,
			LogDir:     defaultLogDir,
			MusicDir:   defaultMusicDir,
			APIBind:    defaultAPIBind,
		},
		Text: Text{
			BaseURL:        defaultTextBaseURL,
			Model:          defaultTextModel,
			TimeoutSeconds: defaultTextTimeout,
		},
		Image: Image{
			BaseURL:             defaultImageBaseURL,
			Model:               defaultImageModel,
			Style:               defaultImageStyle,
			Size:                defaultImageSize,
			PollIntervalSeconds: defaultImagePollInterval,
			TimeoutSeconds:      defaultImageTimeout,
		},
		TTS: TTS{
			BaseURL:        defaultTTSBaseURL,
			Model:          defaultTTSModel,
			VoiceID:        defaultTTSVoice,
			Speed:          defaultTTSSpeed,
			TimeoutSeconds: defaultTTSTimeout,
		},
		Music: Music{
			LibraryMode:  defaultMusicMode,
			DefaultTrack: defaultMusicTrack,
			Manifest:     defaultMusicManifest,
		},
		Video: Video{
			FFmpegBinary:      defaultFFmpegBinary,
			FFprobeBinary:     defaultFFprobeBinary,
			MusicVolume:       defaultMusicVolume,
			MixTimeoutSeconds: defaultMixTimeoutSeconds,
		},
		Pipeline: Pipeline{
			BranchWorkers:   defaultBranchWorkers,
			ScriptCharLimit: defaultScriptCharLimit,
		},
		Journal: Journal{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			RunCompleted:   true,
			RunFailed:      true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
