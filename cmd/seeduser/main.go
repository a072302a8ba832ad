// cmd/seeduser/main.go: creates the first admin operator.
// Usage: SEED_USERNAME=dono SEED_PIN=1234 go run ./cmd/seeduser
package main

import (
	"context"
	"errors"
	"os"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/config"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/dto"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/infra"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/model"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/repository"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/service"

	"github.com/rs/zerolog/log"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	defer infra.SetupLogger(cfg).Close()

	ctx := context.Background()
	db, err := infra.NewDatabase(ctx, cfg.DatabaseURL, false)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect error")
	}

	auth := service.NewAuthService(repository.NewUsuarioRepository(db), cfg)
	req := dto.CriarUsuarioRequest{
		Username: envOr("SEED_USERNAME", "admin"),
		Nome:     envOr("SEED_NOME", "Administrador"),
		Pin:      envOr("SEED_PIN", "1234"),
		Rol:      model.RolAdmin,
	}
	user, err := auth.CriarUsuario(ctx, req)
	if errors.Is(err, service.ErrUsuarioJaExiste) {
		log.Info().Str("username", req.Username).Msg("user already exists, nothing to do")
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("create user")
	}
	log.Info().Str("id", user.ID).Str("username", user.Username).Msg("admin user created")
}
