package router

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/incluiaqui/incluiaqui-server/config"
	"github.com/incluiaqui/incluiaqui-server/internal/application"
	pginfra "github.com/incluiaqui/incluiaqui-server/internal/infrastructure/postgres"
	handlers "github.com/incluiaqui/incluiaqui-server/internal/interface/http"
	"github.com/incluiaqui/incluiaqui-server/internal/router/modules"
	"github.com/incluiaqui/incluiaqui-server/pkg/hasher"
	"github.com/incluiaqui/incluiaqui-server/pkg/helpers"
)

// Deps holds the long-lived infrastructure handles built in main. Modules are
// wired from these explicitly; there are no package-level singletons.
type Deps struct {
	Config *config.Config
	Logger *logrus.Logger
	Pool   *pgxpool.Pool
	Redis  *redis.Client
	GCS    *storage.Client
	ES     *elasticsearch.Client
	Mail   *helpers.RabbitPublisher
}

// InitModules constructs the feature modules and adds them to the registry.
func InitModules(r *Registry, deps Deps) {
	repo := pginfra.NewUserRepository(deps.Pool)
	h := hasher.NewBcrypt(deps.Config.BcryptCost)
	svc := application.NewUserService(repo, h, deps.Logger)
	search := application.NewUserSearch(deps.ES, deps.Config.ESUsersIndex, deps.Logger)

	userHandler := handlers.NewUserHandler(svc, search, deps.Logger, deps.GCS, deps.Config.GCSBucket, deps.Mail)

	r.Add(modules.NewUserModule(userHandler, deps.Redis))
	r.Add(modules.NewStatusModule(handlers.NewStatusHandler()))
}
