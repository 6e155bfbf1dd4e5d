package httpapi

import "github.com/gin-gonic/gin"

// SetupRoutes registers all editorial and pipeline-trigger routes.
func SetupRoutes(r *gin.Engine, h *Handler) {
	cycles := r.Group("/cycles")
	{
		cycles.POST("", h.CreateCycle)
		cycles.GET("/:id", h.GetCycle)
		cycles.POST("/:id/reset", h.ResetCycle)
		cycles.PUT("/:id/subject", h.SetSubject)
		cycles.PUT("/:id/top-count", h.SetTopCount)

		cycles.POST("/:id/ingest", h.Ingest)
		cycles.POST("/:id/rate", h.Rate)
		cycles.POST("/:id/dedup", h.Dedup)
		cycles.POST("/:id/select", h.Select)
		cycles.POST("/:id/recompute-totals", h.RecomputeTotals)

		cycles.POST("/:id/transition", h.Transition)
		cycles.GET("/:id/digest", h.Digest)
	}

	articles := r.Group("/articles")
	{
		articles.POST("/:id/skip", h.Skip)
		articles.POST("/:id/reorder", h.Reorder)
	}
}
