package notify

import (
	"context"

	"go.uber.org/zap"
)

// Permission is the platform state for delivering alerts.
type Permission string

const (
	PermissionGranted      Permission = "granted"
	PermissionDenied       Permission = "denied"
	PermissionUndetermined Permission = "undetermined"
)

// TitlePrefix is prepended to every delivered alert title.
const TitlePrefix = "SyncLife: "

// Notifier delivers local alerts. Fire is a logged no-op without permission.
type Notifier interface {
	Permission() Permission
	RequestPermission(ctx context.Context) (bool, error)
	Fire(ctx context.Context, title, body string) error
}

// LogNotifier has no delivery channel and only writes alerts to the log.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Permission() Permission { return PermissionDenied }

func (n *LogNotifier) RequestPermission(context.Context) (bool, error) { return false, nil }

func (n *LogNotifier) Fire(_ context.Context, title, body string) error {
	logFallback(n.log, title, body)
	return nil
}

func logFallback(log *zap.Logger, title, body string) {
	log.Warn("notifications not permitted, alert kept in log",
		zap.String("title", TitlePrefix+title),
		zap.String("body", body),
	)
}
