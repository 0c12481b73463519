package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/saeid-a/CoachEscrow/internal/events"
	"github.com/saeid-a/CoachEscrow/internal/ledger"
	"github.com/saeid-a/CoachEscrow/internal/models"
	"github.com/saeid-a/CoachEscrow/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AttendanceMode controls how repeated attendance marks feed client stats.
type AttendanceMode string

const (
	// AttendanceRepeatable counts every mark, including corrections.
	AttendanceRepeatable AttendanceMode = "repeatable"
	// AttendanceOnce counts only the first mark of each session; later marks
	// still overwrite the session's attended flag.
	AttendanceOnce AttendanceMode = "once"
)

type EscrowOptions struct {
	CustodyAccount string
	AttendanceMode AttendanceMode
}

type eventPublisher interface {
	Publish(ctx context.Context, event events.Envelope) error
}

// EscrowService owns the coaching session lifecycle: escrowed booking,
// attendance marking and release of funds to the coach.
type EscrowService struct {
	store          repository.Store
	risk           *RiskTracker
	publisher      eventPublisher
	logger         *zap.Logger
	custody        string
	attendanceMode AttendanceMode
}

func NewEscrowService(
	store repository.Store,
	risk *RiskTracker,
	publisher eventPublisher,
	logger *zap.Logger,
	opts EscrowOptions,
) *EscrowService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.AttendanceMode == "" {
		opts.AttendanceMode = AttendanceRepeatable
	}
	return &EscrowService{
		store:          store,
		risk:           risk,
		publisher:      publisher,
		logger:         logger,
		custody:        opts.CustodyAccount,
		attendanceMode: opts.AttendanceMode,
	}
}

type CreateSessionInput struct {
	Client        string
	Coach         string
	Amount        decimal.Decimal
	ScheduledTime uint64
}

func (s *EscrowService) Initialize(ctx context.Context, paymentAsset string) error {
	paymentAsset = strings.TrimSpace(paymentAsset)
	if paymentAsset == "" {
		return fmt.Errorf("%w: payment asset is required", ErrInvalidInput)
	}

	err := s.store.InTx(ctx, func(repos repository.Repositories) error {
		_, err := repos.Config.Get(ctx)
		if err == nil {
			return ErrAlreadyInitialized
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("load escrow config: %w", err)
		}

		if err := repos.Config.Insert(ctx, paymentAsset); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return ErrAlreadyInitialized
			}
			return fmt.Errorf("store escrow config: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("escrow initialized", zap.String("payment_asset", paymentAsset))
	return nil
}

func (s *EscrowService) GetConfig(ctx context.Context) (*models.EscrowConfig, error) {
	cfg, err := s.store.Repositories().Config.Get(ctx)
	if err != nil {
		return nil, configError(err)
	}
	return cfg, nil
}

// CreateSession moves the payment into custody and books the session. The
// transfer, id allocation, session write and stats update commit together.
func (s *EscrowService) CreateSession(
	ctx context.Context,
	auth AuthContext,
	input CreateSessionInput,
) (*models.CoachingSession, error) {
	if err := auth.RequireAuthorizedAs(input.Client); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Coach) == "" {
		return nil, fmt.Errorf("%w: coach is required", ErrInvalidInput)
	}
	// Release moves custody to coach; custody on either side would lock the funds.
	if input.Coach == s.custody || input.Client == s.custody {
		return nil, fmt.Errorf("%w: custody account cannot be a session party", ErrInvalidInput)
	}
	if err := models.ValidateAmount(input.Amount); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	var (
		created models.CoachingSession
		update  riskUpdate
	)
	err := s.store.InTx(ctx, func(repos repository.Repositories) error {
		cfg, err := repos.Config.GetForUpdate(ctx)
		if err != nil {
			return configError(err)
		}
		if cfg.SessionCounter == math.MaxUint64 {
			return errors.New("session counter exhausted")
		}

		if err := s.transfer(ctx, repos.Accounts, cfg.PaymentAsset, input.Client, s.custody, input.Amount); err != nil {
			return err
		}

		created = models.CoachingSession{
			SessionID:     cfg.SessionCounter + 1,
			Client:        input.Client,
			Coach:         input.Coach,
			Amount:        input.Amount,
			ScheduledTime: input.ScheduledTime,
		}
		if err := repos.Sessions.Create(ctx, &created); err != nil {
			return fmt.Errorf("store session: %w", err)
		}
		if err := repos.Config.SetSessionCounter(ctx, created.SessionID); err != nil {
			return fmt.Errorf("advance session counter: %w", err)
		}

		update, err = s.risk.record(ctx, repos.Stats, input.Client, true, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("session created",
		zap.Uint64("session_id", created.SessionID),
		zap.String("client", created.Client),
		zap.String("coach", created.Coach),
		zap.String("amount", created.Amount.String()),
	)
	s.publish(ctx, sessionEvent(events.TopicSessionCreated, created))
	s.publishRisk(ctx, update)
	return &created, nil
}

func (s *EscrowService) MarkAttendance(
	ctx context.Context,
	auth AuthContext,
	sessionID uint64,
	attended bool,
) (*models.CoachingSession, error) {
	var (
		session  *models.CoachingSession
		update   riskUpdate
		recorded bool
	)
	err := s.store.InTx(ctx, func(repos repository.Repositories) error {
		var err error
		session, err = loadSessionForUpdate(ctx, repos.Sessions, sessionID)
		if err != nil {
			return err
		}
		if err := auth.RequireAuthorizedAs(session.Coach); err != nil {
			return err
		}

		firstMark := !session.AttendanceMarked
		session.Attended = attended
		session.AttendanceMarked = true
		if err := repos.Sessions.UpdateFlags(ctx, session); err != nil {
			return fmt.Errorf("store session: %w", err)
		}

		if s.attendanceMode == AttendanceOnce && !firstMark {
			return nil
		}
		recorded = true
		update, err = s.risk.record(ctx, repos.Stats, session.Client, false, attended)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("attendance marked",
		zap.Uint64("session_id", session.SessionID),
		zap.Bool("attended", attended),
		zap.Bool("stats_recorded", recorded),
	)
	event := sessionEvent(events.TopicAttendanceMarked, *session)
	event.Attended = &attended
	s.publish(ctx, event)
	s.publishRisk(ctx, update)
	return session, nil
}

// CompleteSession releases the escrowed amount to the coach. The completed
// flag is latched only after the release transfer succeeds.
func (s *EscrowService) CompleteSession(
	ctx context.Context,
	auth AuthContext,
	sessionID uint64,
) (*models.CoachingSession, error) {
	var session *models.CoachingSession
	err := s.store.InTx(ctx, func(repos repository.Repositories) error {
		var err error
		session, err = loadSessionForUpdate(ctx, repos.Sessions, sessionID)
		if err != nil {
			return err
		}
		if err := auth.RequireAuthorizedAs(session.Coach); err != nil {
			return err
		}
		if !session.Attended {
			return ErrNotAttended
		}
		if session.Completed {
			return ErrAlreadyCompleted
		}

		cfg, err := repos.Config.Get(ctx)
		if err != nil {
			return configError(err)
		}
		if err := s.transfer(ctx, repos.Accounts, cfg.PaymentAsset, s.custody, session.Coach, session.Amount); err != nil {
			return err
		}

		session.Completed = true
		if err := repos.Sessions.UpdateFlags(ctx, session); err != nil {
			return fmt.Errorf("store session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("session completed",
		zap.Uint64("session_id", session.SessionID),
		zap.String("coach", session.Coach),
		zap.String("released", session.Amount.String()),
	)
	s.publish(ctx, sessionEvent(events.TopicSessionCompleted, *session))
	return session, nil
}

func (s *EscrowService) GetSession(ctx context.Context, sessionID uint64) (*models.CoachingSession, error) {
	session, err := s.store.Repositories().Sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return session, nil
}

// ListSessions returns the caller's sessions as client or as coach.
func (s *EscrowService) ListSessions(
	ctx context.Context,
	auth AuthContext,
	party string,
) ([]models.CoachingSession, error) {
	if auth.Identity == "" {
		return nil, ErrUnauthorized
	}
	if party != "client" && party != "coach" {
		return nil, fmt.Errorf("%w: party must be client or coach", ErrInvalidInput)
	}
	return s.store.Repositories().Sessions.List(ctx, repository.SessionListFilter{
		Party:    party,
		Identity: auth.Identity,
	})
}

func (s *EscrowService) transfer(
	ctx context.Context,
	accounts ledger.Accounts,
	asset string,
	from string,
	to string,
	amount decimal.Decimal,
) error {
	err := ledger.Transfer(ctx, accounts, asset, from, to, amount)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	default:
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}
}

func (s *EscrowService) publish(ctx context.Context, event events.Envelope) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event failed",
			zap.String("topic", event.Topic),
			zap.Uint64("session_id", event.SessionID),
			zap.Error(err),
		)
	}
}

func (s *EscrowService) publishRisk(ctx context.Context, update riskUpdate) {
	if !update.BecameAtRisk {
		return
	}
	s.logger.Info("client flagged at risk",
		zap.String("client", update.Stats.Client),
		zap.Uint64("total_sessions", update.Stats.TotalSessions),
		zap.Uint64("missed_sessions", update.Stats.MissedSessions),
	)
	event := events.NewEnvelope(events.TopicClientAtRisk)
	event.Client = update.Stats.Client
	atRisk := true
	event.AtRisk = &atRisk
	s.publish(ctx, event)
}

func loadSessionForUpdate(
	ctx context.Context,
	sessions repository.SessionStore,
	sessionID uint64,
) (*models.CoachingSession, error) {
	session, err := sessions.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	return session, nil
}

func configError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotInitialized
	}
	return fmt.Errorf("load escrow config: %w", err)
}

func sessionEvent(topic string, session models.CoachingSession) events.Envelope {
	event := events.NewEnvelope(topic)
	event.SessionID = session.SessionID
	event.Client = session.Client
	event.Coach = session.Coach
	event.Amount = session.Amount.String()
	return event
}
