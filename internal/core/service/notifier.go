package service

import (
	"context"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, domain.Notification) {}

func notifierOrNop(n port.Notifier) port.Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
