package app

import (
	"database/sql"

	"github.com/Heavenston/headar/internal/auth"
	"github.com/Heavenston/headar/internal/config"
	"github.com/Heavenston/headar/internal/event_bus"
	"github.com/Heavenston/headar/internal/hub"
	"github.com/Heavenston/headar/internal/utils"
	"github.com/Heavenston/headar/pkg/availability"
	"github.com/Heavenston/headar/pkg/label"
	"github.com/Heavenston/headar/pkg/user"
)

// Dependencies holds all services wired into the application.
type Dependencies struct {
	Bus    *event_bus.Bus
	Issuer *auth.Issuer
	Clock  utils.Clock

	UserRepo    user.Repo
	UserService *user.ServiceImpl

	RangeRepo    availability.Repository
	RangeService *availability.ServiceImpl

	LabelRepo    label.Repository
	LabelService *label.ServiceImpl

	Hub *hub.Hub
}

// BuildDependencies initializes and wires all application services.
func BuildDependencies(db *sql.DB, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Bus = event_bus.NewBus()
	deps.Clock = utils.SystemClock{}
	deps.Issuer = auth.NewIssuer([]byte(cfg.Auth.SigningKey), deps.Clock)

	deps.UserRepo = user.NewUserRepo(db)
	deps.UserService = user.NewService(deps.UserRepo, deps.Bus)

	deps.RangeRepo = availability.NewRepository(db)
	deps.RangeService = availability.NewService(deps.RangeRepo, deps.Bus, deps.UserService)

	deps.LabelRepo = label.NewRepository(db)
	deps.LabelService = label.NewService(deps.LabelRepo, deps.Bus, deps.UserService)

	deps.UserService.SetCascades(deps.RangeService, deps.LabelService)

	deps.Hub = hub.New(hub.Config{
		Issuer:    deps.Issuer,
		Bus:       deps.Bus,
		Users:     deps.UserService,
		Ranges:    deps.RangeService,
		Labels:    deps.LabelService,
		UserRepo:  deps.UserRepo,
		RangeRepo: deps.RangeRepo,
		LabelRepo: deps.LabelRepo,
	})

	return deps
}
