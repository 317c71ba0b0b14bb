package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"chromir-be/internal/config"
	"chromir-be/internal/dto"
	"chromir-be/internal/entity"
	"chromir-be/internal/pkg/apperror"
	"chromir-be/internal/pkg/logger"
	"chromir-be/internal/pkg/mailer"
	"chromir-be/internal/repository/specification"
	"chromir-be/internal/repository/unitofwork"
	"chromir-be/pkg/events"
	"chromir-be/pkg/session"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var errBadCredentials = apperror.Unauthorized("invalid email or password")

type IAuthService interface {
	SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.AuthResponse, error)
	SignIn(ctx context.Context, req *dto.SignInRequest) (*dto.AuthResponse, error)
	// SignOut revokes the session's token until it would have expired anyway.
	SignOut(ctx context.Context, sess session.Session, expiresAt time.Time) error
	GetProfile(ctx context.Context, sess session.Session) (*dto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, sess session.Session, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
}

type authService struct {
	uowFactory   unitofwork.RepositoryFactory
	issuer       *session.TokenIssuer
	denylist     *session.Denylist
	notifier     *session.Notifier
	emailService mailer.IEmailService
	events       *events.Publisher
	ledgerCfg    config.LedgerConfig
	logger       logger.ILogger
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	issuer *session.TokenIssuer,
	denylist *session.Denylist,
	notifier *session.Notifier,
	emailService mailer.IEmailService,
	publisher *events.Publisher,
	ledgerCfg config.LedgerConfig,
	log logger.ILogger,
) IAuthService {
	return &authService{
		uowFactory:   uowFactory,
		issuer:       issuer,
		denylist:     denylist,
		notifier:     notifier,
		emailService: emailService,
		events:       publisher,
		ledgerCfg:    ledgerCfg,
		logger:       log,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) SignUp(ctx context.Context, req *dto.SignUpRequest) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.InvalidInput("a valid email is required")
	}
	if len(req.Password) < 8 {
		return nil, apperror.InvalidInput("password must be at least 8 characters")
	}
	orgName := strings.TrimSpace(req.OrganizationName)
	if orgName == "" {
		return nil, apperror.InvalidInput("organization name is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	userId := uuid.New()
	org := &entity.Organization{
		Id:      uuid.New(),
		Name:    orgName,
		Tokens:  s.ledgerCfg.StartingTokens,
		OwnerId: userId,
	}
	profile := &entity.Profile{
		Id:             userId,
		Email:          email,
		PasswordHash:   string(hash),
		OrganizationId: org.Id,
	}
	if name := strings.TrimSpace(req.FullName); name != "" {
		profile.FullName = &name
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, apperror.Persistence("begin sign up", err)
	}
	defer uow.Rollback()

	existing, err := uow.ProfileRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, apperror.Persistence("find profile", err)
	}
	if existing != nil {
		return nil, apperror.Conflict("email %s is already registered", email)
	}

	if err := uow.OrganizationRepository().Create(ctx, org); err != nil {
		return nil, apperror.Persistence("create organization", err)
	}
	if err := uow.ProfileRepository().Create(ctx, profile); err != nil {
		return nil, apperror.Persistence("create profile", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, apperror.Persistence("commit sign up", err)
	}

	s.events.PublishUserSignedUp(ctx, profile.Id, org.Id, email)
	go func() {
		if err := s.emailService.SendWelcome(email, org.Name); err != nil {
			s.logger.Warn("AUTH", "Failed to send welcome email", map[string]interface{}{"email": email, "error": err.Error()})
		}
	}()

	return s.issue(ctx, profile, org)
}

func (s *authService) SignIn(ctx context.Context, req *dto.SignInRequest) (*dto.AuthResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	profile, err := uow.ProfileRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, apperror.Persistence("find profile", err)
	}
	if profile == nil {
		return nil, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errBadCredentials
	}

	org, err := uow.OrganizationRepository().FindOne(ctx, specification.ByID{ID: profile.OrganizationId})
	if err != nil {
		return nil, apperror.Persistence("find organization", err)
	}
	if org == nil {
		return nil, apperror.NotFound("organization")
	}
	return s.issue(ctx, profile, org)
}

func (s *authService) issue(ctx context.Context, profile *entity.Profile, org *entity.Organization) (*dto.AuthResponse, error) {
	token, claims, err := s.issuer.Issue(profile.Id, org.Id, profile.Email)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, session.AuthStateChange{Event: session.AuthSignedIn, UserId: profile.Id, TokenId: claims.Session.TokenId})
	return &dto.AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   claims.ExpiresAt,
		Profile:     toProfileResponse(profile, org),
	}, nil
}

func (s *authService) SignOut(ctx context.Context, sess session.Session, expiresAt time.Time) error {
	if sess.TokenId == "" {
		return apperror.Unauthorized("token has no id")
	}
	if err := s.denylist.Revoke(ctx, sess.TokenId, expiresAt); err != nil {
		return err
	}
	s.notify(ctx, session.AuthStateChange{Event: session.AuthSignedOut, UserId: sess.UserId, TokenId: sess.TokenId})
	return nil
}

func (s *authService) GetProfile(ctx context.Context, sess session.Session) (*dto.ProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	profile, org, err := s.load(ctx, uow, sess)
	if err != nil {
		return nil, err
	}
	res := toProfileResponse(profile, org)
	return &res, nil
}

func (s *authService) UpdateProfile(ctx context.Context, sess session.Session, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	profile, org, err := s.load(ctx, uow, sess)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		profile.FullName = &name
	}
	if req.AvatarURL != nil {
		avatar := strings.TrimSpace(*req.AvatarURL)
		profile.AvatarURL = &avatar
	}
	if err := uow.ProfileRepository().Update(ctx, profile); err != nil {
		return nil, apperror.Persistence("update profile", err)
	}

	s.notify(ctx, session.AuthStateChange{Event: session.AuthProfileUpdated, UserId: profile.Id, TokenId: sess.TokenId})
	res := toProfileResponse(profile, org)
	return &res, nil
}

func (s *authService) load(ctx context.Context, uow unitofwork.UnitOfWork, sess session.Session) (*entity.Profile, *entity.Organization, error) {
	profile, err := uow.ProfileRepository().FindOne(ctx, specification.ByID{ID: sess.UserId})
	if err != nil {
		return nil, nil, apperror.Persistence("find profile", err)
	}
	if profile == nil {
		return nil, nil, apperror.NotFound("profile")
	}
	org, err := uow.OrganizationRepository().FindOne(ctx, specification.ByID{ID: profile.OrganizationId})
	if err != nil {
		return nil, nil, apperror.Persistence("find organization", err)
	}
	if org == nil {
		return nil, nil, apperror.NotFound("organization")
	}
	return profile, org, nil
}

// notify is best effort; a missed notification never fails the request.
func (s *authService) notify(ctx context.Context, change session.AuthStateChange) {
	if err := s.notifier.Publish(ctx, change); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("AUTH", "Failed to publish auth state change", map[string]interface{}{
			"event": string(change.Event), "user_id": change.UserId, "error": err.Error(),
		})
	}
}

func toProfileResponse(p *entity.Profile, org *entity.Organization) dto.ProfileResponse {
	return dto.ProfileResponse{
		Id:        p.Id,
		Email:     p.Email,
		FullName:  p.FullName,
		AvatarURL: p.AvatarURL,
		Organization: dto.OrganizationResponse{
			Id:              org.Id,
			Name:            org.Name,
			BrandGuidelines: org.BrandGuidelines,
			Tokens:          org.Tokens,
			CreatedAt:       org.CreatedAt,
		},
		CreatedAt: p.CreatedAt,
	}
}
