package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/dialpoint/memline/pkg/customer"
	"github.com/dialpoint/memline/pkg/storage"
)

// ErrorResponse is the JSON error body returned by all API endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ProfileRequest is the PUT /v1/profiles/:phone request body. Omitted fields
// leave the stored value unchanged.
type ProfileRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// ObservationRequest is the POST /v1/observations request body.
type ObservationRequest struct {
	Phone   string `json:"phone"`
	Content string `json:"content"`
	Source  string `json:"source"`
}

// BoardOverviewResponse is the dashboard aggregate: every customer with
// observation counts plus totals across the whole store.
type BoardOverviewResponse struct {
	Customers         []CustomerRow `json:"customers"`
	TotalCustomers    int           `json:"total_customers"`
	TotalObservations int           `json:"total_observations"`
}

// CustomerRow is one dashboard row.
type CustomerRow struct {
	Profile      customer.Profile `json:"profile"`
	Observations int              `json:"observations"`
}

// BoardCustomerResponse is the per-customer dashboard view: the profile plus
// its most recent observations.
type BoardCustomerResponse struct {
	Profile      customer.Profile       `json:"profile"`
	Observations []customer.Observation `json:"observations"`
	Total        int                    `json:"total"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleListProfiles returns all profiles, most recently updated first.
func (s *Server) handleListProfiles(c *fiber.Ctx) error {
	profiles, err := s.storer.ListProfiles(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list profiles"})
	}

	return c.JSON(map[string]any{
		"count":    len(profiles),
		"profiles": profiles,
	})
}

// handleGetProfile returns a single profile by phone.
func (s *Server) handleGetProfile(c *fiber.Ctx) error {
	phone := c.Params("phone")
	if phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "phone parameter required"})
	}

	profile, err := s.storer.GetProfile(c.Context(), phone)
	if err != nil {
		if storage.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to get profile"})
	}

	return c.JSON(profile)
}

// handlePutProfile upserts profile traits for a phone. Creating a profile
// that already exists is a trait update, never a duplicate.
func (s *Server) handlePutProfile(c *fiber.Ctx) error {
	phone := c.Params("phone")
	if phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "phone parameter required"})
	}

	var req ProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	traits := &customer.Traits{Name: req.Name, Email: req.Email}
	if _, ok := s.memories.GetOrCreateProfile(c.Context(), phone, traits); !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to upsert profile"})
	}

	profile, err := s.storer.GetProfile(c.Context(), phone)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read back profile"})
	}

	return c.JSON(profile)
}

// handleCreateObservation records a single observation. The profile is
// created on the fly when the phone has not been seen before.
func (s *Server) handleCreateObservation(c *fiber.Ctx) error {
	var req ObservationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	source, err := customer.ParseSource(req.Source)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	obs, err := customer.NewObservation(req.Phone, req.Content, source)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	if _, ok := s.memories.GetOrCreateProfile(c.Context(), req.Phone, nil); !ok {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to resolve profile"})
	}

	if err := s.storer.CreateObservation(c.Context(), obs); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to persist observation"})
	}

	return c.Status(fiber.StatusCreated).JSON(obs)
}

// handleRecall retrieves observations relevant to a query, with a recency
// fallback when nothing matches.
func (s *Server) handleRecall(c *fiber.Ctx) error {
	phone := c.Query("phone")
	if phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "phone query parameter required"})
	}

	query := c.Query("query")
	conversationID := c.Query("conversation_id")

	result := s.memories.RecallMemories(c.Context(), phone, query, conversationID)
	if result == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "recall failed"})
	}

	return c.JSON(result)
}

// handleBoardOverview returns the dashboard aggregate over all customers.
func (s *Server) handleBoardOverview(c *fiber.Ctx) error {
	summaries := s.memories.ListCustomers(c.Context())
	if summaries == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list customers"})
	}

	rows := make([]CustomerRow, 0, len(summaries))
	total := 0
	for _, sum := range summaries {
		rows = append(rows, CustomerRow{
			Profile:      sum.Profile,
			Observations: sum.Observations,
		})
		total += sum.Observations
	}

	return c.JSON(BoardOverviewResponse{
		Customers:         rows,
		TotalCustomers:    len(rows),
		TotalObservations: total,
	})
}

// handleBoardCustomer returns the per-customer dashboard view.
func (s *Server) handleBoardCustomer(c *fiber.Ctx) error {
	phone := c.Params("phone")
	if phone == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "phone parameter required"})
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "limit must be a positive integer"})
		}
		limit = parsed
	}

	ctx := c.Context()

	profile, err := s.storer.GetProfile(ctx, phone)
	if err != nil {
		if storage.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "profile not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to get profile"})
	}

	observations, err := s.storer.RecentObservations(ctx, phone, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list observations"})
	}

	total, err := s.storer.CountObservations(ctx, phone)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to count observations"})
	}

	return c.JSON(BoardCustomerResponse{
		Profile:      *profile,
		Observations: observations,
		Total:        total,
	})
}
