package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/assemblage/asm/internal/services"
	appErrors "github.com/assemblage/asm/pkg/errors"
	"github.com/assemblage/asm/pkg/logger"
	"github.com/assemblage/asm/pkg/metrics"
	"github.com/assemblage/asm/pkg/response"
)

// AccountHandler exposes the registration and verification endpoints.
type AccountHandler struct {
	svc *services.RegistrationService
	log *zap.Logger
}

// NewAccountHandler constructs an AccountHandler.
func NewAccountHandler(svc *services.RegistrationService) (*AccountHandler, error) {
	if svc == nil {
		return nil, errors.New("account handler: registration service is required")
	}
	return &AccountHandler{svc: svc, log: logger.WithModule("handlers.accounts")}, nil
}

type createAccountRequest struct {
	FirstName    string `json:"firstName" validate:"required"`
	LastName     string `json:"lastName" validate:"required"`
	StudentEmail string `json:"studentEmail" validate:"required"`
	StudentNo    string `json:"studentNo" validate:"required"`
}

type verifyCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

// POST /create_account
func (h *AccountHandler) Create(c *gin.Context) {
	var req createAccountRequest
	if !bindAndValidate(c, &req, appErrors.ErrMissingFields) {
		metrics.RegistrationAttempts.WithLabelValues("rejected").Inc()
		return
	}

	_, err := h.svc.Register(requestContext(c), services.RegistrationInput{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		StudentEmail: req.StudentEmail,
		StudentNo:    req.StudentNo,
	})
	if err != nil {
		h.writeRegisterError(c, err)
		return
	}

	metrics.RegistrationAttempts.WithLabelValues("accepted").Inc()
	metrics.EmailsSent.Inc()
	response.Message(c, http.StatusOK, "Verification code sent. Check your email.")
}

func (h *AccountHandler) writeRegisterError(c *gin.Context, err error) {
	var deliveryErr *services.DeliveryError

	switch {
	case errors.Is(err, services.ErrMissingFields):
		metrics.RegistrationAttempts.WithLabelValues("rejected").Inc()
		response.Error(c, appErrors.ErrMissingFields)
	case errors.Is(err, services.ErrInvalidDomain):
		metrics.RegistrationAttempts.WithLabelValues("rejected").Inc()
		response.Error(c, appErrors.ErrInvalidEmail)
	case errors.As(err, &deliveryErr):
		metrics.RegistrationAttempts.WithLabelValues("delivery_failed").Inc()
		response.Error(c, appErrors.Newf(http.StatusInternalServerError, "Failed to send email: %v", deliveryErr.Err))
	default:
		h.log.Error("registration failed", zap.Error(err))
		metrics.RegistrationAttempts.WithLabelValues("error").Inc()
		response.Error(c, appErrors.Newf(http.StatusInternalServerError, "%v", err))
	}
}

// POST /verify_code
func (h *AccountHandler) Verify(c *gin.Context) {
	var req verifyCodeRequest
	if !bindAndValidate(c, &req, appErrors.ErrCodeInvalid) {
		metrics.VerificationAttempts.WithLabelValues("invalid").Inc()
		return
	}

	creds, err := h.svc.Verify(requestContext(c), req.Code)
	if err != nil {
		h.writeVerifyError(c, err)
		return
	}

	metrics.VerificationAttempts.WithLabelValues("provisioned").Inc()
	response.JSON(c, http.StatusOK, gin.H{
		"message":  "Account created successfully!",
		"username": creds.Username,
		"password": creds.Password,
	})
}

func (h *AccountHandler) writeVerifyError(c *gin.Context, err error) {
	var provisionErr *services.ProvisionError

	switch {
	case errors.Is(err, services.ErrCodeNotFound):
		metrics.VerificationAttempts.WithLabelValues("invalid").Inc()
		response.Error(c, appErrors.ErrCodeInvalid)
	case errors.Is(err, services.ErrCodeExpired):
		metrics.VerificationAttempts.WithLabelValues("expired").Inc()
		response.Error(c, appErrors.ErrCodeExpired)
	case errors.As(err, &provisionErr):
		metrics.VerificationAttempts.WithLabelValues("provision_failed").Inc()
		response.Error(c, appErrors.Newf(http.StatusInternalServerError, "System error: %v", provisionErr.Err))
	default:
		h.log.Error("verification failed", zap.Error(err))
		metrics.VerificationAttempts.WithLabelValues("error").Inc()
		response.Error(c, appErrors.Newf(http.StatusInternalServerError, "System error: %v", err))
	}
}
