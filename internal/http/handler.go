package http

import (
	"context"
	"errors"
	"fmt"
	gohttp "net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/split-swapper/internal/config"
	"github.com/hxuan190/split-swapper/internal/http/httputil"
	"github.com/hxuan190/split-swapper/internal/http/middlewares"
	"github.com/hxuan190/split-swapper/internal/swapper"
)

const (
	API_VERSION  = "v1"
	HTTP_SERVICE = "http-service"
)

type HTTPService struct {
	container.BaseDIInstance

	swapperSvc  *swapper.Service
	rateLimiter *middlewares.RateLimiter
	server      *gohttp.Server
	conf        *config.GeneralConfig

	handlers []httputil.IHttpHandler
}

func (svc *HTTPService) ID() string {
	return HTTP_SERVICE
}

func (svc *HTTPService) Start() error {
	svc.server = &gohttp.Server{
		Addr:    svc.conf.HTTPHost + ":" + svc.conf.HTTPPort,
		Handler: svc.router(),
	}
	log.Info().Str("host", svc.conf.HTTPHost).Str("port", svc.conf.HTTPPort).Msg("http server started")

	if err := svc.server.ListenAndServe(); err != nil && err != gohttp.ErrServerClosed {
		return err
	}

	return nil
}

func (svc *HTTPService) router() *gin.Engine {
	r := gin.Default()
	r.Use(gin.Recovery())

	corsConf := cors.DefaultConfig()
	corsConf.AllowAllOrigins = true
	corsConf.AllowCredentials = true
	corsConf.AddAllowHeaders("Authorization", middlewares.WalletHeader, middlewares.TimestampHeader, middlewares.SignatureHeader)
	r.Use(cors.New(corsConf))

	r.Use(middlewares.MetricsMiddleware())
	r.Use(svc.rateLimiter.RateLimitMiddleware())

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(gohttp.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("api")
	pub := api.Group(API_VERSION)
	priv := api.Group(API_VERSION, middlewares.RequireWallet())

	admin := api.Group(fmt.Sprintf("%s/admin", API_VERSION), middlewares.RequireWallet())

	svc.setupHandlers(pub, priv, admin)
	return r
}

func (svc *HTTPService) Configure(c container.IContainer) error {
	conf, ok := c.GetConfig(config.GENERAL_CONFIG_KEY).(*config.GeneralConfig)
	if !ok || conf == nil {
		return errors.New("invalid server config")
	}
	swapperSvc, ok := c.Instance(swapper.SWAPPER_SERVICE).(*swapper.Service)
	if !ok {
		return errors.New("swapper service not registered")
	}
	svc.setup(conf, swapperSvc)
	return nil
}

func (svc *HTTPService) setup(conf *config.GeneralConfig, swapperSvc *swapper.Service) {
	svc.conf = conf
	svc.swapperSvc = swapperSvc
	svc.rateLimiter = middlewares.NewRateLimiter(conf.RateLimit, conf.RateBurst)

	svc.handlers = []httputil.IHttpHandler{
		NewSwapHandler(svc.swapperSvc),
		NewPoolHandler(svc.swapperSvc),
		NewFeeHandler(svc.swapperSvc),
		NewEngineHandler(svc.swapperSvc),
		NewReceiptHandler(svc.swapperSvc),
		NewBalanceHandler(svc.swapperSvc),
	}
}

func (svc *HTTPService) Stop() error {
	if svc.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := svc.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to stop http server")
		return err
	}
	log.Info().Msg("http server stopped gracefully")
	return nil
}

func (svc *HTTPService) setupHandlers(
	rootPub *gin.RouterGroup,
	rootPriv *gin.RouterGroup,
	rootAdmin *gin.RouterGroup,
) {
	for _, h := range svc.handlers {
		pub := rootPub.Group(h.Root())
		priv := rootPriv.Group(h.Root())
		admin := rootAdmin.Group(h.Root())
		h.SetRoutes(pub, priv, admin)
	}
}
