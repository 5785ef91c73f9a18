// Package bot is the conversation engine: it interprets inbound updates
// against each user's persisted state, mutates quiz and result records, and
// emits outbound instructions through the Gateway.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ollashukur/testbot/internal/quiz"
	"github.com/ollashukur/testbot/internal/state"
	"github.com/ollashukur/testbot/internal/users"
)

type Config struct {
	AdminID     int64
	BotUsername string
	// CertificateURL is the base URL of the external image service.
	CertificateURL string
}

type Router struct {
	gw      Gateway
	quizzes quiz.Store
	users   users.Store
	states  state.Store
	notify  *Notifier
	log     *slog.Logger

	adminID     int64
	botUsername string
	certBase    string

	locks *userLocks
}

func NewRouter(cfg Config, gw Gateway, quizzes quiz.Store, userDir users.Store, states state.Store, notify *Notifier, log *slog.Logger) *Router {
	return &Router{
		gw:          gw,
		quizzes:     quizzes,
		users:       userDir,
		states:      states,
		notify:      notify,
		log:         log,
		adminID:     cfg.AdminID,
		botUsername: cfg.BotUsername,
		certBase:    cfg.CertificateURL,
		locks:       newUserLocks(),
	}
}

// HandleUpdate processes one inbound update to completion. Message and
// button updates are serialized per user id; inline queries are stateless
// and read-only. Storage failures are logged here, at the outermost
// boundary, and the update is considered consumed either way.
func (r *Router) HandleUpdate(ctx context.Context, u Update) error {
	var err error
	switch {
	case u.Message != nil:
		r.locks.lock(u.Message.UserID)
		err = r.handleMessage(ctx, u.Message)
		r.locks.unlock(u.Message.UserID)
	case u.Button != nil:
		r.locks.lock(u.Button.UserID)
		err = r.handleButton(ctx, u.Button)
		r.locks.unlock(u.Button.UserID)
	case u.Inline != nil:
		err = r.handleInline(ctx, u.Inline)
	default:
		return nil
	}
	if err != nil {
		// Permission denials are already answered with an alert at the
		// press site; everything else is a real failure.
		if errors.Is(err, ErrPermissionDenied) {
			return nil
		}
		r.log.Error("update failed", "err", err)
		r.acknowledgeFailure(ctx, u)
	}
	return err
}

// acknowledgeFailure sends a generic failure response so the user is not
// left hanging when storage is down. Best effort.
func (r *Router) acknowledgeFailure(ctx context.Context, u Update) {
	const sorry = "❌ <b>Something went wrong.</b> Please try again later."
	switch {
	case u.Message != nil:
		if err := r.gw.SendText(ctx, u.Message.ChatID, sorry, nil); err != nil {
			r.log.Warn("failure ack not delivered", "err", err)
		}
	case u.Button != nil:
		if err := r.gw.AnswerButton(ctx, u.Button.QueryID, "❌ Something went wrong", true); err != nil {
			r.log.Warn("failure ack not delivered", "err", err)
		}
	}
}

func (r *Router) isAdmin(userID int64) bool {
	return r.adminID != 0 && userID == r.adminID
}

func (r *Router) currentState(ctx context.Context, userID int64) (state.State, error) {
	s, err := r.states.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return s, nil
}
