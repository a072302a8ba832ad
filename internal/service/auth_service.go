package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/config"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/dto"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/model"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Token types carried in the "tipo" claim.
const (
	TokenAcesso  = "access"
	TokenRefresh = "refresh"
)

// prefixoAutorizacao marks authorization tokens produced by a badge scan.
const prefixoAutorizacao = "AUTH:"

// Operador is the authenticated operator performing an operation.
type Operador struct {
	ID   uuid.UUID
	Nome string
	Rol  string
}

// Autorizacao is the proof that a supervisor approved a sensitive operation.
// Only AuthService.Autorizar issues it, so holding one means the check passed.
type Autorizacao struct {
	supervisor string
	em         time.Time
}

// Supervisor names who approved; "codigo" for the store-wide code.
func (a *Autorizacao) Supervisor() string {
	if a == nil {
		return ""
	}
	return a.supervisor
}

func (a *Autorizacao) valida() bool { return a != nil && !a.em.IsZero() }

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	// Autorizar validates the secondary authorization typed or scanned at the
	// register: an admin PIN, the CANCELAMENTO_CODIGO or an AUTH:<user>:<pin> token.
	Autorizar(ctx context.Context, codigo string) (*Autorizacao, error)
	CriarUsuario(ctx context.Context, req dto.CriarUsuarioRequest) (*dto.UsuarioResponse, error)
	ListarUsuarios(ctx context.Context) ([]dto.UsuarioResponse, error)
	DesativarUsuario(ctx context.Context, id uuid.UUID) error
	ReactivarUsuario(ctx context.Context, id uuid.UUID) error
}

type authService struct {
	repo repository.UsuarioRepository
	cfg  *config.Config
	now  func() time.Time
}

func NewAuthService(repo repository.UsuarioRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, cfg: cfg, now: time.Now}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, ErrCredenciaisInvalidas
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PinHash), []byte(req.Pin)); err != nil {
		log.Warn().Str("username", req.Username).Msg("auth: login with wrong PIN")
		return nil, ErrCredenciaisInvalidas
	}
	return s.emitirTokens(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalido
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalido
	}
	if tipo, _ := claims["tipo"].(string); tipo != TokenRefresh {
		return nil, ErrTokenInvalido
	}
	userIDStr, _ := claims["user_id"].(string)
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, ErrTokenInvalido
	}

	user, err := s.repo.FindByID(ctx, uid)
	if err != nil || !user.Ativo {
		return nil, ErrUsuarioNaoEncontrado
	}
	return s.emitirTokens(user)
}

func (s *authService) Autorizar(ctx context.Context, codigo string) (*Autorizacao, error) {
	codigo = strings.TrimSpace(codigo)
	if codigo == "" {
		return nil, ErrNaoAutorizado
	}

	// Scanned badges: parsed as untrusted text, validated like typed credentials.
	if strings.HasPrefix(strings.ToUpper(codigo), prefixoAutorizacao) {
		partes := strings.SplitN(codigo[len(prefixoAutorizacao):], ":", 2)
		if len(partes) != 2 || partes[0] == "" || partes[1] == "" {
			log.Warn().Msg("auth: malformed authorization token")
			return nil, ErrNaoAutorizado
		}
		user, err := s.repo.FindByUsername(ctx, partes[0])
		if err != nil || user.Rol != model.RolAdmin || !pinConfere(user, partes[1]) {
			log.Warn().Str("username", partes[0]).Msg("auth: authorization token rejected")
			return nil, ErrNaoAutorizado
		}
		return s.autorizacao(user.Username), nil
	}

	if s.cfg.CancelamentoCodigo != "" &&
		subtle.ConstantTimeCompare([]byte(codigo), []byte(s.cfg.CancelamentoCodigo)) == 1 {
		return s.autorizacao("codigo"), nil
	}

	admins, err := s.repo.ListByRol(ctx, model.RolAdmin)
	if err != nil {
		return nil, err
	}
	for i := range admins {
		if pinConfere(&admins[i], codigo) {
			return s.autorizacao(admins[i].Username), nil
		}
	}
	log.Warn().Msg("auth: supervisor authorization rejected")
	return nil, ErrNaoAutorizado
}

func (s *authService) autorizacao(supervisor string) *Autorizacao {
	return &Autorizacao{supervisor: supervisor, em: s.now()}
}

func pinConfere(u *model.Usuario, pin string) bool {
	return u.Ativo && bcrypt.CompareHashAndPassword([]byte(u.PinHash), []byte(pin)) == nil
}

func (s *authService) CriarUsuario(ctx context.Context, req dto.CriarUsuarioRequest) (*dto.UsuarioResponse, error) {
	if _, err := s.repo.FindByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsuarioJaExiste
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := HashPin(req.Pin)
	if err != nil {
		return nil, err
	}
	user := &model.Usuario{
		Username: strings.TrimSpace(req.Username),
		Nome:     req.Nome,
		Email:    req.Email,
		PinHash:  hash,
		Rol:      req.Rol,
		Ativo:    true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	resp := usuarioToResponse(user)
	return &resp, nil
}

func (s *authService) ListarUsuarios(ctx context.Context) ([]dto.UsuarioResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.UsuarioResponse, len(users))
	for i := range users {
		resp[i] = usuarioToResponse(&users[i])
	}
	return resp, nil
}

func (s *authService) DesativarUsuario(ctx context.Context, id uuid.UUID) error {
	return naoEncontrado(s.repo.SoftDelete(ctx, id), ErrUsuarioNaoEncontrado)
}

func (s *authService) ReactivarUsuario(ctx context.Context, id uuid.UUID) error {
	return naoEncontrado(s.repo.Reactivar(ctx, id), ErrUsuarioNaoEncontrado)
}

func (s *authService) emitirTokens(user *model.Usuario) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(user, TokenAcesso, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(user, TokenRefresh, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         usuarioToResponse(user),
	}, nil
}

func (s *authService) generateToken(user *model.Usuario, tipo string, duration time.Duration) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"user_id":  user.ID.String(),
		"username": user.Username,
		"nome":     user.Nome,
		"rol":      user.Rol,
		"tipo":     tipo,
		"exp":      now.Add(duration).Unix(),
		"iat":      now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// HashPin hashes an operator PIN for storage.
func HashPin(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), 12)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func usuarioToResponse(u *model.Usuario) dto.UsuarioResponse {
	return dto.UsuarioResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Nome:     u.Nome,
		Email:    u.Email,
		Rol:      u.Rol,
		Ativo:    u.Ativo,
	}
}

// naoEncontrado translates gorm.ErrRecordNotFound into the service sentinel.
func naoEncontrado(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
