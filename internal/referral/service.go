package referral

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/safar/go-shop-checkout/internal/config"
	"github.com/safar/go-shop-checkout/internal/database"
	"github.com/safar/go-shop-checkout/internal/models"
	"github.com/safar/go-shop-checkout/internal/store"
	"go.uber.org/zap"
)

var ErrInvalidRegistration = errors.New("invalid registration")

type RegisterRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	ReferralCode string `json:"referralCode,omitempty"`
}

type Registration struct {
	User *models.User `json:"user"`
	// Reward is set when this sign-up completed a referral milestone for
	// the referrer. The coupon belongs to the referrer, not to User.
	Reward *models.Coupon `json:"-"`
}

// Service registers users and pays out referral milestones.
type Service struct {
	db     *sql.DB
	log    *zap.Logger
	cfg    config.ReferralConfig
	now    func() time.Time
	txOpts database.TxOptions
}

func NewService(db *sql.DB, log *zap.Logger, cfg config.ReferralConfig) *Service {
	return &Service{
		db:     db,
		log:    log,
		cfg:    cfg,
		now:    time.Now,
		txOpts: database.DefaultTxOptions(),
	}
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Registration, error) {
	if err := validate(&req); err != nil {
		return nil, err
	}

	var reg *Registration
	err := database.WithRetry(ctx, s.db, s.txOpts, func(tx *sql.Tx) error {
		r, err := s.register(ctx, tx, req)
		if err != nil {
			return err
		}
		reg = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered",
		zap.Int64("user_id", reg.User.ID),
		zap.Bool("referred", reg.User.ReferredBy != nil))
	if reg.Reward != nil {
		s.log.Info("referral reward issued",
			zap.Int64("referrer_id", *reg.User.ReferredBy),
			zap.String("code", reg.Reward.Code))
	}

	return reg, nil
}

func (s *Service) register(ctx context.Context, tx *sql.Tx, req RegisterRequest) (*Registration, error) {
	var referrer *models.User
	if req.ReferralCode != "" {
		r, err := store.GetUserByReferralCode(ctx, tx, req.ReferralCode)
		if err != nil {
			return nil, err
		}
		referrer = r
	}

	params := store.CreateUserParams{Email: req.Email, Name: req.Name, Role: models.RoleUser}
	if referrer != nil {
		params.ReferredBy = &referrer.ID
	}

	user, err := store.CreateUser(ctx, tx, params)
	if err != nil {
		return nil, err
	}

	reg := &Registration{User: user}
	if referrer == nil {
		return reg, nil
	}

	count, err := store.InsertReferral(ctx, tx, referrer.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if !ReachedMilestone(count, s.cfg.Milestone) {
		return reg, nil
	}

	reward, err := store.CreateCoupon(ctx, tx, store.CreateCouponParams{
		Code:            rewardCode(),
		DiscountPercent: s.cfg.RewardPercent,
		MaxUses:         1,
		ExpiresAt:       s.now().Add(s.cfg.RewardTTL),
		IssuedTo:        &referrer.ID,
		IssuedReason:    models.IssuedForReferral,
	})
	if err != nil {
		return nil, fmt.Errorf("issue referral reward: %w", err)
	}
	reg.Reward = reward

	return reg, nil
}

// ReachedMilestone reports whether the count-th referral earns a reward.
func ReachedMilestone(count, milestone int) bool {
	return milestone > 0 && count > 0 && count%milestone == 0
}

func rewardCode() string {
	return "REF-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func validate(req *RegisterRequest) error {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	req.ReferralCode = strings.ToUpper(strings.TrimSpace(req.ReferralCode))

	if req.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidRegistration)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return fmt.Errorf("%w: email is not valid", ErrInvalidRegistration)
	}
	if req.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRegistration)
	}
	if len(req.Name) > 255 {
		return fmt.Errorf("%w: name must be at most 255 characters", ErrInvalidRegistration)
	}
	return nil
}
