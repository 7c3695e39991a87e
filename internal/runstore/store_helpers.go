package runstore

import (
	"database/sql"
	"time"
)

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run            Run
		sessionID      sql.NullString
		sessionDir     sql.NullString
		userPrompt     sql.NullString
		emotionalState sql.NullString
		status         string
		intentKind     sql.NullString
		musicType      sql.NullString
		musicKind      sql.NullString
		artifactPath   sql.NullString
		placeholder    int64
		errorMessage   sql.NullString
		errorKind      sql.NullString
		createdRaw     string
		updatedRaw     string
		finishedRaw    sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Workflow,
		&sessionID,
		&sessionDir,
		&userPrompt,
		&emotionalState,
		&run.State,
		&status,
		&intentKind,
		&musicType,
		&musicKind,
		&artifactPath,
		&placeholder,
		&errorMessage,
		&errorKind,
		&createdRaw,
		&updatedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	run.SessionID = sessionID.String
	run.SessionDir = sessionDir.String
	run.UserPrompt = userPrompt.String
	run.EmotionalState = emotionalState.String
	run.Status = Status(status)
	run.IntentKind = intentKind.String
	run.MusicType = musicType.String
	run.MusicKind = musicKind.String
	run.ArtifactPath = artifactPath.String
	run.Placeholder = placeholder != 0
	run.ErrorMessage = errorMessage.String
	run.ErrorKind = errorKind.String
	run.CreatedAt = parseTime(createdRaw)
	run.UpdatedAt = parseTime(updatedRaw)
	if finishedRaw.Valid {
		run.FinishedAt = parseTime(finishedRaw.String)
	}
	return &run, nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
