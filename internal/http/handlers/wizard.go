package handlers

import (
	"net/http"
	"time"

	"storefront/internal/auth"
	"storefront/internal/domain"
	"storefront/internal/domain/models"
	"storefront/internal/http/middleware"
	"storefront/internal/pricing"
	"storefront/internal/services"
	"storefront/internal/wizard"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CatalogReader is the route catalog as seen by the storefront.
type CatalogReader interface {
	Route(product models.Product, id string) (models.RouteSelection, error)
	List(product models.Product) ([]models.RouteSelection, error)
}

// WizardHandler serves the booking wizard of the caller's session.
type WizardHandler struct {
	Sessions   *services.SessionService
	Tokens     *auth.SessionTokens
	Catalog    CatalogReader
	Rules      pricing.Rules
	Submission services.SubmissionService
	SessionTTL time.Duration
	Logger     *zap.Logger
}

type stepView struct {
	Step      models.Step `json:"step"`
	Valid     bool        `json:"valid"`
	Reachable bool        `json:"reachable"`
	Current   bool        `json:"current"`
}

type draftView struct {
	Draft         models.BookingDraft `json:"draft"`
	Steps         []stepView          `json:"steps"`
	MissingFields []string            `json:"missing_fields"`
}

func viewOf(store *wizard.Store) draftView {
	d := store.Snapshot()
	validity := store.Validity()
	steps := make([]stepView, 0, len(models.Steps))
	reachable := true
	for _, s := range models.Steps {
		steps = append(steps, stepView{
			Step:      s,
			Valid:     validity[s],
			Reachable: reachable,
			Current:   s == d.CurrentStep,
		})
		reachable = reachable && validity[s]
	}
	return draftView{Draft: d, Steps: steps, MissingFields: store.MissingFields()}
}

func (h WizardHandler) session(c *gin.Context) (*services.Session, bool) {
	sc, ok := middleware.GetSession(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "missing session", nil)
		return nil, false
	}
	sess, err := h.Sessions.Get(sc)
	if err != nil {
		RespondDomainError(c, err)
		return nil, false
	}
	return sess, true
}

// mutate runs fn against the session store and answers with the new view.
func (h WizardHandler) mutate(c *gin.Context, fn func(*wizard.Store) error) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	if err := fn(sess.Store); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(sess.Store))
}

// CreateSession issues a session token for :product.
func (h WizardHandler) CreateSession(c *gin.Context) {
	product := models.Product(c.Param("product"))
	token, sc, err := h.Tokens.Issue(product)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	sess, err := h.Sessions.Get(sc)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"token":      token,
		"session_id": sc.SessionID,
		"product":    sc.Product,
		"expires_in": int64(h.SessionTTL.Seconds()),
		"state":      viewOf(sess.Store),
	})
}

func (h WizardHandler) GetDraft(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, viewOf(sess.Store))
}

type routeRequest struct {
	RouteID string `json:"route_id"`
}

func (h WizardHandler) SelectRoute(c *gin.Context) {
	var req routeRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	h.mutate(c, func(s *wizard.Store) error { return s.SelectRouteByID(req.RouteID) })
}

type vehicleRequest struct {
	VehicleType string `json:"vehicle_type"`
}

func (h WizardHandler) SetVehicle(c *gin.Context) {
	var req vehicleRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	h.mutate(c, func(s *wizard.Store) error { return s.SetVehicleType(req.VehicleType) })
}

type tripTypeRequest struct {
	TripType models.TripType `json:"trip_type"`
}

func (h WizardHandler) SetTripType(c *gin.Context) {
	var req tripTypeRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	h.mutate(c, func(s *wizard.Store) error { return s.SetTripType(req.TripType) })
}

type dateTimeRequest struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	IsReturn bool   `json:"is_return"`
}

func (h WizardHandler) SetDateTime(c *gin.Context) {
	var req dateTimeRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	h.mutate(c, func(s *wizard.Store) error { return s.SetDateTime(req.Date, req.Time, req.IsReturn) })
}

type passengersRequest struct {
	PassengerCount int `json:"passenger_count"`
	LuggageCount   int `json:"luggage_count"`
}

func (h WizardHandler) SetPassengers(c *gin.Context) {
	var req passengersRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	h.mutate(c, func(s *wizard.Store) error { return s.SetPassengers(req.PassengerCount, req.LuggageCount) })
}

type optionsRequest struct {
	SelectedOptions []models.SelectedOption `json:"selected_options"`
}

func (h WizardHandler) SetOptions(c *gin.Context) {
	var req optionsRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	h.mutate(c, func(s *wizard.Store) error { return s.SetOptions(req.SelectedOptions) })
}

func (h WizardHandler) PatchContact(c *gin.Context) {
	var req models.ContactPatch
	if !BindJSONOrError(c, &req) {
		return
	}
	h.mutate(c, func(s *wizard.Store) error { return s.SetContact(req) })
}

func (h WizardHandler) GetSteps(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	v := viewOf(sess.Store)
	c.JSON(http.StatusOK, gin.H{"current_step": v.Draft.CurrentStep, "steps": v.Steps})
}

func (h WizardHandler) NextStep(c *gin.Context) {
	h.mutate(c, func(s *wizard.Store) error { return s.Next() })
}

func (h WizardHandler) PreviousStep(c *gin.Context) {
	h.mutate(c, func(s *wizard.Store) error { return s.Previous() })
}

func (h WizardHandler) GoToStep(c *gin.Context) {
	step, ok := models.ParseStep(c.Param("step"))
	if !ok {
		RespondDomainError(c, domain.ValidationError{Field: "step", Msg: "unknown step " + c.Param("step")})
		return
	}
	h.mutate(c, func(s *wizard.Store) error { return s.GoToStep(step) })
}

// Preview returns the advisory client-side breakdown.
func (h WizardHandler) Preview(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	p, err := h.Rules.Preview(sess.Store.Snapshot())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"preview": p, "advisory": true})
}

// Calculate prices the draft now and waits for the answer.
func (h WizardHandler) Calculate(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	b, err := sess.Calculator.Calculate(c.Request.Context(), sess.Store)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pricing": b, "state": viewOf(sess.Store)})
}

func (h WizardHandler) Submit(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	svc := h.Submission
	svc.RequestID = middleware.GetRequestID(c)
	if svc.Logger == nil {
		svc.Logger = h.Logger
	}
	res, err := svc.Submit(c.Request.Context(), sess.Store)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Cancel discards the draft and its persisted record.
func (h WizardHandler) Cancel(c *gin.Context) {
	h.mutate(c, func(s *wizard.Store) error { return s.Reset() })
}

func (h WizardHandler) SummaryPDF(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	svc := services.SummaryDocService{
		Rules:     h.Rules,
		Logger:    h.Logger,
		RequestID: middleware.GetRequestID(c),
	}
	pdf, filename, err := svc.GenerateSummary(sess.Store.Snapshot())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// ListCatalog lists the routes offered for :product.
func (h WizardHandler) ListCatalog(c *gin.Context) {
	product := models.Product(c.Param("product"))
	if !product.Valid() {
		RespondDomainError(c, domain.ValidationError{Field: "product", Msg: "unknown product " + string(product)})
		return
	}
	routes, err := h.Catalog.List(product)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product, "routes": routes})
}
