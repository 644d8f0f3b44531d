package api

import (
	stdhttp "net/http"

	intconfig "storefront/internal/config"
	h "storefront/internal/http/handlers"
	"storefront/internal/http/middleware"
	"storefront/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(env intconfig.Env, wiz h.WizardHandler, log *zap.Logger) *gin.Engine {
	log = utils.OrNop(log)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(log), gin.Recovery(), middleware.CORS(env.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Warn("failed to set trusted proxies", zap.Error(err))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)
		api.GET("/routes", h.Routes)

		api.GET("/catalog/:product", wiz.ListCatalog)

		// Wizard sessions
		api.POST("/sessions/:product", wiz.CreateSession)

		wizard := api.Group("/wizard")
		wizard.Use(middleware.RequireSession(wiz.Tokens))
		mountWizard(wizard, wiz)
	}

	h.SetRouter(r)
	return r
}

func mountWizard(g *gin.RouterGroup, wiz h.WizardHandler) {
	g.GET("/draft", wiz.GetDraft)
	g.DELETE("/draft", wiz.Cancel)

	g.PUT("/route", wiz.SelectRoute)
	g.PUT("/vehicle", wiz.SetVehicle)
	g.PUT("/trip-type", wiz.SetTripType)
	g.PUT("/datetime", wiz.SetDateTime)
	g.PUT("/passengers", wiz.SetPassengers)
	g.PUT("/options", wiz.SetOptions)
	g.PATCH("/contact", wiz.PatchContact)

	g.GET("/steps", wiz.GetSteps)
	g.POST("/steps/next", wiz.NextStep)
	g.POST("/steps/previous", wiz.PreviousStep)
	g.PUT("/steps/:step", wiz.GoToStep)

	g.GET("/preview", wiz.Preview)
	g.POST("/pricing", wiz.Calculate)
	g.POST("/submit", wiz.Submit)
	g.GET("/summary.pdf", wiz.SummaryPDF)
	g.GET("/ws", wiz.Stream)
}
