package controllers

import (
	"context"
	"net/http"

	"github.com/sonjunho2/tok-friends/internal/dtos"
	"github.com/sonjunho2/tok-friends/internal/utils"
)

// Pinger reports database reachability. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	db Pinger
}

func NewHealthController(db Pinger) *HealthController {
	return &HealthController{db: db}
}

func (c *HealthController) Check(w http.ResponseWriter, r *http.Request) {
	if err := c.db.Ping(r.Context()); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusServiceUnavailable, utils.ErrCodeInternal, "Database unreachable", nil, err,
		)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.HealthCheckResponse{Status: "ok"})
}
