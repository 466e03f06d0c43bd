// Package invitation implementa el alta y vinculación de owners, personal y clientes del portal.
// Cada flujo valida y comprueba permisos antes de mutar, ejecuta todas las escrituras en una
// transacción y envía el email solo después del commit.
package invitation

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/thepoolbud/poolbud-api/internal/application/dto"
	"github.com/thepoolbud/poolbud-api/internal/application/identity"
	"github.com/thepoolbud/poolbud-api/internal/domain"
	"github.com/thepoolbud/poolbud-api/internal/domain/entity"
	"github.com/thepoolbud/poolbud-api/internal/domain/repository"
)

// Config URLs y vigencias.
type Config struct {
	SiteURL     string // sin barra final
	InviteTTL   time.Duration
	RecoveryTTL time.Duration
}

// UseCase flujos de invitación.
type UseCase struct {
	tx     TxRunner
	authz  Authorizer
	mailer Mailer
	cfg    Config
	log    zerolog.Logger
	now    func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(tx TxRunner, authz Authorizer, mailer Mailer, cfg Config, log zerolog.Logger) *UseCase {
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	return &UseCase{tx: tx, authz: authz, mailer: mailer, cfg: cfg, log: log, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

func (uc *UseCase) provider(s repository.TxStores) *identity.Provider {
	return identity.NewProvider(s.Identities, s.Tokens, identity.LinkConfig{
		InviteTTL:   uc.cfg.InviteTTL,
		RecoveryTTL: uc.cfg.RecoveryTTL,
	}).WithClock(uc.now)
}

func (uc *UseCase) welcomeURL() string { return uc.cfg.SiteURL + "/welcome" }

func (uc *UseCase) customerSetupURL(customerID string) string {
	return uc.cfg.SiteURL + "/customer-setup?customerId=" + url.QueryEscape(customerID)
}

func (uc *UseCase) resetPasswordURL() string { return uc.cfg.SiteURL + "/reset-password" }

func (uc *UseCase) canInvite(inviter, target entity.Role) (bool, error) {
	ok, err := uc.authz.CanInvite(inviter, target)
	if err != nil {
		return false, fmt.Errorf("evaluar permisos: %w", err)
	}
	return ok, nil
}

// deliver envía el enlace tras el commit. Un fallo no revierte el estado; reinvitar es idempotente.
func (uc *UseCase) deliver(ctx context.Context, link *entity.ActionLink, name string) error {
	if link == nil {
		return nil
	}
	if err := uc.mailer.SendActionLink(ctx, link, name); err != nil {
		uc.log.Error().Err(err).Str("identity_id", link.IdentityID).Str("kind", string(link.Kind)).Msg("envío de enlace fallido")
		return fmt.Errorf("%w: enviar email: %v", domain.ErrUpstream, err)
	}
	return nil
}

// InviteOwner crea o reutiliza la empresa, invita o re-vincula al owner, degrada al owner
// anterior a admin y deja al invitado como único owner con onboarding pendiente.
// Solo platform_admin.
func (uc *UseCase) InviteOwner(ctx context.Context, sess *entity.Session, in dto.InviteOwnerRequest) (*dto.InviteOwnerResponse, error) {
	ok, err := uc.canInvite(sess.Role(), entity.RoleOwner)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.Denied("solo los administradores de la plataforma pueden invitar owners")
	}

	email := entity.NormalizeEmail(in.Owner.Email)
	fullName := strings.TrimSpace(in.Owner.FullName)
	phone := strings.TrimSpace(in.Owner.Phone)
	if email == "" || fullName == "" {
		return nil, domain.Invalid("owner.email y owner.fullName son requeridos")
	}
	companyID := strings.TrimSpace(in.CompanyID)
	companyName := strings.TrimSpace(in.CompanyName)
	if companyID == "" && companyName == "" {
		return nil, domain.Invalid("companyName es requerido cuando no se envía companyId")
	}
	redirectTo := strings.TrimSpace(in.InviteRedirectURL)
	if redirectTo == "" {
		redirectTo = uc.welcomeURL()
	}

	var res *identity.Resolution
	err = uc.tx.RunInvitation(ctx, func(s repository.TxStores) error {
		now := uc.now()
		if companyID != "" {
			company, err := s.Companies.GetByID(ctx, companyID)
			if err != nil {
				return err
			}
			if company == nil {
				return domain.NotFound("empresa no encontrada")
			}
		} else {
			company := &entity.Company{
				ID:                uuid.New().String(),
				Name:              companyName,
				BillingAccountRef: strings.TrimSpace(in.BillingAccountRef),
				CreatedAt:         now,
			}
			if err := s.Companies.Create(ctx, company); err != nil {
				return fmt.Errorf("crear empresa: %w", err)
			}
			companyID = company.ID
		}

		if err := uc.checkTarget(ctx, s, sess, email); err != nil {
			return err
		}
		res, err = uc.provider(s).InviteOrRelink(ctx, email, entity.IdentityMetadata{FullName: fullName, Phone: phone}, redirectTo)
		if err != nil {
			return err
		}
		return uc.promoteOwner(ctx, s, companyID, &entity.Profile{
			ID:        res.Identity.ID,
			Role:      entity.RoleOwner,
			CompanyID: companyID,
			FullName:  fullName,
			Email:     email,
			Phone:     phone,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("company_id", companyID).Str("user_id", res.Identity.ID).Str("outcome", string(res.Outcome)).Msg("owner invitado")
	if err := uc.deliver(ctx, res.Link, fullName); err != nil {
		return nil, err
	}
	return &dto.InviteOwnerResponse{
		CompanyID: companyID,
		UserID:    res.Identity.ID,
		Invited:   res.Invited(),
		Outcome:   string(res.Outcome),
	}, nil
}

// promoteOwner serializa por empresa, degrada a los demás owners y hace upsert del nuevo.
func (uc *UseCase) promoteOwner(ctx context.Context, s repository.TxStores, companyID string, owner *entity.Profile) error {
	if err := s.Profiles.LockCompany(ctx, companyID); err != nil {
		return fmt.Errorf("bloquear empresa: %w", err)
	}
	demoted, err := s.Profiles.DemoteOwners(ctx, companyID, owner.ID)
	if err != nil {
		return fmt.Errorf("degradar owner anterior: %w", err)
	}
	if demoted > 0 {
		uc.log.Info().Str("company_id", companyID).Int64("demoted", demoted).Msg("owner anterior degradado a admin")
	}
	if err := s.Profiles.Upsert(ctx, owner); err != nil {
		return fmt.Errorf("guardar perfil: %w", err)
	}
	return nil
}

// InviteTeamMember invita admin, dispatcher o técnico a la empresa del solicitante
// (o a la indicada, si es platform_admin).
func (uc *UseCase) InviteTeamMember(ctx context.Context, sess *entity.Session, in dto.InviteTeamMemberRequest) (*dto.InviteTeamMemberResponse, error) {
	if sess.Profile == nil {
		return nil, domain.Denied("Forbidden")
	}
	role, ok := entity.ParseRole(in.Role)
	if !ok || !isTeamRole(role) {
		return nil, domain.Invalid("rol inválido")
	}
	email := entity.NormalizeEmail(in.Email)
	fullName := strings.TrimSpace(in.FullName)
	phone := strings.TrimSpace(in.Phone)
	if email == "" || fullName == "" {
		return nil, domain.Invalid("email y fullName son requeridos")
	}

	var companyID string
	if sess.IsPlatformAdmin() {
		companyID = strings.TrimSpace(in.CompanyID)
		if companyID == "" {
			return nil, domain.Invalid("companyId es requerido para administradores de la plataforma")
		}
	} else {
		if !sess.Profile.HasCompany() {
			return nil, domain.Denied("el solicitante no pertenece a ninguna empresa")
		}
		companyID = sess.Profile.CompanyID
	}

	allowed, err := uc.canInvite(sess.Role(), role)
	if err != nil {
		return nil, err
	}
	if !allowed {
		if sess.Role() == entity.RoleAdmin {
			return nil, domain.Denied("los admin solo pueden invitar dispatchers y técnicos")
		}
		return nil, domain.Denied("no tienes permiso para invitar miembros del equipo")
	}

	redirectTo := strings.TrimSpace(in.InviteRedirectURL)
	if redirectTo == "" {
		redirectTo = uc.welcomeURL()
	}

	var res *identity.Resolution
	err = uc.tx.RunInvitation(ctx, func(s repository.TxStores) error {
		company, err := s.Companies.GetByID(ctx, companyID)
		if err != nil {
			return err
		}
		if company == nil {
			return domain.NotFound("empresa no encontrada")
		}
		if err := uc.checkTarget(ctx, s, sess, email); err != nil {
			return err
		}
		res, err = uc.provider(s).InviteOrRelink(ctx, email, entity.IdentityMetadata{FullName: fullName, Phone: phone}, redirectTo)
		if err != nil {
			return err
		}
		now := uc.now()
		if err := s.Profiles.Upsert(ctx, &entity.Profile{
			ID:        res.Identity.ID,
			Role:      role,
			CompanyID: companyID,
			FullName:  fullName,
			Email:     email,
			Phone:     phone,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("guardar perfil: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("company_id", companyID).Str("user_id", res.Identity.ID).Str("role", string(role)).Str("outcome", string(res.Outcome)).Msg("miembro del equipo invitado")
	if err := uc.deliver(ctx, res.Link, fullName); err != nil {
		return nil, err
	}
	return &dto.InviteTeamMemberResponse{
		UserID:    res.Identity.ID,
		CompanyID: companyID,
		Invited:   res.Invited(),
		Outcome:   string(res.Outcome),
	}, nil
}

// checkTarget rechaza la invitación si el email ya pertenece a un perfil que el solicitante
// no puede modificar: un platform_admin, un rol igual o superior al suyo, o alguien de otra
// empresa. platform_admin solo queda limitado por la primera regla.
func (uc *UseCase) checkTarget(ctx context.Context, s repository.TxStores, sess *entity.Session, email string) error {
	ident, err := s.Identities.FindByEmail(ctx, email)
	if err != nil || ident == nil {
		return err
	}
	target, err := s.Profiles.GetByID(ctx, ident.ID)
	if err != nil || target == nil {
		return err
	}
	if target.Role == entity.RolePlatformAdmin {
		return domain.Denied("no se puede reasignar a un administrador de la plataforma")
	}
	if sess.IsPlatformAdmin() {
		return nil
	}
	if target.HasCompany() && target.CompanyID != sess.CompanyID() {
		return domain.Denied("el usuario pertenece a otra empresa")
	}
	if !sess.Role().Outranks(target.Role) {
		return domain.Denied("no puedes modificar a un usuario de rango igual o superior")
	}
	return nil
}

func isTeamRole(r entity.Role) bool {
	for _, t := range entity.TeamRoles {
		if t == r {
			return true
		}
	}
	return false
}

// InviteCustomerPortalAccess da acceso al portal a un cliente: si ya tiene identidad enlazada
// se reenvía un enlace de recuperación; si no, se invita o se re-vincula por email.
// El solicitante debe ser personal de la empresa del cliente (o platform_admin).
func (uc *UseCase) InviteCustomerPortalAccess(ctx context.Context, sess *entity.Session, in dto.InviteCustomerRequest) (*dto.InviteCustomerResponse, error) {
	customerID := strings.TrimSpace(in.CustomerID)
	if customerID == "" {
		return nil, domain.Invalid("customerId es requerido")
	}
	email := entity.NormalizeEmail(in.Email)
	if email == "" {
		return nil, domain.Invalid("el email del cliente es requerido para enviar la invitación")
	}

	var (
		link     *entity.ActionLink
		outcome  identity.Outcome
		portalID string
		fullName string
	)
	err := uc.tx.RunInvitation(ctx, func(s repository.TxStores) error {
		customer, err := s.Customers.GetByID(ctx, customerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return domain.NotFound("cliente no encontrado")
		}
		if err := authorizeCustomerStaff(sess, customer); err != nil {
			return err
		}

		fullName = strings.TrimSpace(in.FullName)
		if fullName == "" {
			fullName = customer.Name
		}
		redirectTo := uc.customerSetupURL(customer.ID)
		p := uc.provider(s)

		var linked *entity.Identity
		if customer.PortalUserID != "" {
			if linked, err = p.GetByID(ctx, customer.PortalUserID); err != nil {
				return err
			}
		}
		if linked != nil {
			portalID = linked.ID
			outcome = identity.OutcomeRelinked
			link, err = p.RecoveryLink(ctx, linked, redirectTo)
			if err != nil {
				return err
			}
		} else {
			res, err := p.InviteOrRelink(ctx, email, entity.IdentityMetadata{CustomerID: customer.ID, CustomerName: fullName}, redirectTo)
			if err != nil {
				return err
			}
			portalID, outcome, link = res.Identity.ID, res.Outcome, res.Link
		}

		if portalID != customer.PortalUserID {
			if err := s.Customers.LinkPortalUser(ctx, customer.ID, portalID, email); err != nil {
				return fmt.Errorf("enlazar usuario del portal: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("customer_id", customerID).Str("portal_user_id", portalID).Str("outcome", string(outcome)).Msg("acceso al portal enviado")
	if err := uc.deliver(ctx, link, fullName); err != nil {
		return nil, err
	}
	return &dto.InviteCustomerResponse{
		CustomerID:   customerID,
		Invited:      outcome == identity.OutcomeInvited,
		Outcome:      string(outcome),
		PortalUserID: portalID,
	}, nil
}

func authorizeCustomerStaff(sess *entity.Session, customer *entity.Customer) error {
	switch sess.Role() {
	case entity.RolePlatformAdmin:
		return nil
	case entity.RoleOwner, entity.RoleAdmin, entity.RoleDispatcher:
		if sess.CompanyID() == customer.CompanyID {
			return nil
		}
	}
	return domain.Denied("no tienes acceso a este cliente")
}

// SendResetLink emite un enlace de recuperación con el destino según el estado del usuario.
// Si el email no existe responde "not_found" sin error.
func (uc *UseCase) SendResetLink(ctx context.Context, in dto.ResetLinkRequest) (*dto.ResetLinkResponse, error) {
	email := entity.NormalizeEmail(in.Email)
	if email == "" {
		return nil, domain.Invalid("se requiere un email válido")
	}

	var (
		link *entity.ActionLink
		name string
	)
	err := uc.tx.RunInvitation(ctx, func(s repository.TxStores) error {
		p := uc.provider(s)
		ident, err := p.FindByEmail(ctx, email)
		if err != nil || ident == nil {
			return err
		}
		redirectTo, err := uc.resetDestination(ctx, s, ident)
		if err != nil {
			return err
		}
		name = ident.Metadata.FullName
		link, err = p.RecoveryLink(ctx, ident, redirectTo)
		return err
	})
	if err != nil {
		return nil, err
	}
	if link == nil {
		return &dto.ResetLinkResponse{Status: "not_found"}, nil
	}
	if err := uc.deliver(ctx, link, name); err != nil {
		return nil, err
	}
	return &dto.ResetLinkResponse{Status: "sent", RedirectTo: link.RedirectTo}, nil
}

// resetDestination: portal de cliente → customer-setup; personal sin onboarding → welcome; resto → reset-password.
func (uc *UseCase) resetDestination(ctx context.Context, s repository.TxStores, ident *entity.Identity) (string, error) {
	if ident.IsPortalUser() {
		return uc.customerSetupURL(ident.Metadata.CustomerID), nil
	}
	profile, err := s.Profiles.GetByID(ctx, ident.ID)
	if err != nil {
		return "", err
	}
	if profile == nil || !profile.HasCompletedSetup {
		return uc.welcomeURL(), nil
	}
	return uc.resetPasswordURL(), nil
}

// AssignOwner asigna un perfil existente como owner de la empresa (platform_admin).
func (uc *UseCase) AssignOwner(ctx context.Context, sess *entity.Session, companyID string, in dto.AssignOwnerRequest) (*dto.ProfileResponse, error) {
	ok, err := uc.canInvite(sess.Role(), entity.RoleOwner)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.Denied("solo los administradores de la plataforma pueden asignar owners")
	}
	if err := dto.Validate(in); err != nil {
		return nil, err
	}

	var out *entity.Profile
	err = uc.tx.RunInvitation(ctx, func(s repository.TxStores) error {
		company, err := s.Companies.GetByID(ctx, companyID)
		if err != nil {
			return err
		}
		if company == nil {
			return domain.NotFound("empresa no encontrada")
		}
		profile, err := s.Profiles.GetByID(ctx, in.ProfileID)
		if err != nil {
			return err
		}
		if profile == nil {
			return domain.NotFound("perfil no encontrado")
		}
		if profile.Role == entity.RolePlatformAdmin {
			return domain.Invalid("un administrador de la plataforma no puede ser owner")
		}
		profile.Role = entity.RoleOwner
		profile.CompanyID = companyID
		profile.UpdatedAt = uc.now()
		if err := uc.promoteOwner(ctx, s, companyID, profile); err != nil {
			return err
		}
		out = profile
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.ProfileFromEntity(out), nil
}
