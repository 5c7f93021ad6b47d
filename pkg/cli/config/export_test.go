package config

func NewTestRepository(backend, sqlitePath string) *Repository {
	return &Repository{backend: backend, sqlitePath: sqlitePath}
}

func NewTestLogger(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

func NewTestAudit(backend, redisAddr string) *Audit {
	return &Audit{backend: backend, redisAddr: redisAddr, stream: "test:activities"}
}

func NewTestAuth(secret string) *Auth {
	return &Auth{jwtSecret: secret, issuer: "caseflow"}
}

func NewTestArchive(backend, bucket string) *Archive {
	return &Archive{backend: backend, bucket: bucket}
}

func NewTestSlack(token, channel string) *Slack {
	return &Slack{botToken: token, channel: channel}
}
