package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/voltride/voltride/internal/errs"
	"github.com/voltride/voltride/internal/server"
	"github.com/voltride/voltride/internal/service"
)

// validate is shared by all request payload types in this package.
var validate = validator.New()

// ContractHandler exposes the contract-signing verification endpoints.
type ContractHandler struct {
	Handler
	contracts *service.ContractService
}

func NewContractHandler(s *server.Server, contracts *service.ContractService) *ContractHandler {
	return &ContractHandler{
		Handler:   NewHandler(s),
		contracts: contracts,
	}
}

// IssueOtpRequest asks for a signing code to be emailed.
type IssueOtpRequest struct {
	ContractID string `param:"id" validate:"required,uuid4"`
	Email      string `json:"email" validate:"required,email"`
}

func (r *IssueOtpRequest) Validate() error {
	return validate.Struct(r)
}

// IssueOtpResponse deliberately contains no code; the code travels only
// by email.
type IssueOtpResponse struct {
	Status string `json:"status"`
}

// IssueOtp issues a signing code and enqueues its delivery. 202: the
// email is sent asynchronously.
func (h *ContractHandler) IssueOtp(c echo.Context, req *IssueOtpRequest) (*IssueOtpResponse, error) {
	contractID, err := uuid.Parse(req.ContractID)
	if err != nil {
		return nil, errs.NewBadRequestError("Invalid contract id", true, nil, nil, nil)
	}

	if err := h.contracts.RequestSignature(c.Request().Context(), contractID, req.Email); err != nil {
		return nil, err
	}

	return &IssueOtpResponse{Status: "sent"}, nil
}

// VerifyOtpRequest confirms the signature with the emailed code.
type VerifyOtpRequest struct {
	ContractID string `param:"id" validate:"required,uuid4"`
	Code       string `json:"code" validate:"required,len=6,numeric"`
}

func (r *VerifyOtpRequest) Validate() error {
	return validate.Struct(r)
}

// VerifyOtpResponse reports the signed contract.
type VerifyOtpResponse struct {
	Signed bool `json:"signed"`
}

// VerifyOtp checks the code and signs the contract. All failure
// outcomes collapse into one generic 400 so the response does not leak
// whether a challenge exists, expired, or is locked.
func (h *ContractHandler) VerifyOtp(c echo.Context, req *VerifyOtpRequest) (*VerifyOtpResponse, error) {
	contractID, err := uuid.Parse(req.ContractID)
	if err != nil {
		return nil, errs.NewBadRequestError("Invalid contract id", true, nil, nil, nil)
	}

	signed, err := h.contracts.ConfirmSignature(c.Request().Context(), contractID, req.Code)
	if err != nil {
		return nil, err
	}
	if !signed {
		return nil, errs.NewBadRequestError("Verification failed", true, nil, nil, nil)
	}

	return &VerifyOtpResponse{Signed: true}, nil
}
