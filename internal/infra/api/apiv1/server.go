package apiv1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"telegram-entitlement-bot/internal/application"
	"telegram-entitlement-bot/internal/domain"
	"telegram-entitlement-bot/internal/infra/logging"
	"telegram-entitlement-bot/internal/usecase"
)

//go:generate go run github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen --config=oapi-codegen.yaml openapi.yaml

const (
	maxBodyBytes      = 64 << 10
	defaultRecentSize = 10
)

// Server implements the generated ServerInterface on top of the command facade.
type Server struct {
	cmds application.Commands
	log  *zerolog.Logger
}

var _ ServerInterface = (*Server)(nil)

func NewServer(cmds application.Commands, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Server{cmds: cmds, log: logger}
}

// RegisterAPIV1 mounts the generated routes under /api/v1 on r. Parameter
// binding failures answer with the validation error body.
func RegisterAPIV1(r chi.Router, s *Server) {
	HandlerWithOptions(s, ChiServerOptions{
		BaseURL:          "/api/v1",
		BaseRouter:       r,
		ErrorHandlerFunc: s.paramError,
	})
}

func (s *Server) CreateRedemption(w http.ResponseWriter, r *http.Request) {
	var body CreateRedemptionJSONRequestBody
	if !decode(w, r, &body) {
		return
	}
	res, _ := s.cmds.Redeem(r.Context(), usecase.RedeemRequest{
		PurchaseRef:  body.PurchaseRef,
		Beneficiary:  body.Beneficiary,
		Actor:        logging.Actor(r.Context()),
		ReferralCode: body.ReferralCode,
	})
	status := statusFor(res.Kind)
	if res.Kind == domain.KindOK {
		status = http.StatusCreated
	}
	s.logFailure(r.Context(), "redeem", res.Err)
	writeJSON(w, status, toRedemption(res))
}

func (s *Server) GetBeneficiary(w http.ResponseWriter, r *http.Request, id int64) {
	if !validID(w, id) {
		return
	}
	rep, err := s.cmds.LookupBeneficiary(r.Context(), id)
	if err != nil {
		s.fail(w, r, "lookup_beneficiary", err)
		return
	}
	writeJSON(w, http.StatusOK, toReport(rep))
}

func (s *Server) AddTime(w http.ResponseWriter, r *http.Request, id int64) {
	if !validID(w, id) {
		return
	}
	var body AddTimeJSONRequestBody
	if !decode(w, r, &body) {
		return
	}
	res, err := s.cmds.AddTime(r.Context(), id, body.Days)
	if err != nil {
		s.fail(w, r, "add_time", err)
		return
	}
	status := http.StatusOK
	if len(res.Steps.Failed()) > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, AddTimeResponse{
		Beneficiary: res.Beneficiary,
		OldExpiry:   res.OldExpiry,
		NewExpiry:   res.NewExpiry,
		Steps:       toSteps(res.Steps),
	})
}

func (s *Server) BlacklistBeneficiary(w http.ResponseWriter, r *http.Request, id int64) {
	if !validID(w, id) {
		return
	}
	var body BlacklistBeneficiaryJSONRequestBody
	if !decode(w, r, &body) {
		return
	}
	e, err := s.cmds.Blacklist(r.Context(), id, body.Reason, logging.Actor(r.Context()))
	if err != nil {
		s.fail(w, r, "blacklist", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBlacklistEntry(e))
}

func (s *Server) UnblacklistBeneficiary(w http.ResponseWriter, r *http.Request, id int64) {
	if !validID(w, id) {
		return
	}
	if err := s.cmds.Unblacklist(r.Context(), id); err != nil {
		s.fail(w, r, "unblacklist", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) RevokeBeneficiary(w http.ResponseWriter, r *http.Request, id int64) {
	if !validID(w, id) {
		return
	}
	res, err := s.cmds.Revoke(r.Context(), id)
	if err != nil {
		s.fail(w, r, "revoke", err)
		return
	}
	status := http.StatusOK
	if len(res.Steps.Failed()) > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, RevokeResponse{Beneficiary: res.Beneficiary, Deactivated: res.Deactivated, Steps: toSteps(res.Steps)})
}

func (s *Server) GetReferralCode(w http.ResponseWriter, r *http.Request, id int64) {
	if !validID(w, id) {
		return
	}
	code, err := s.cmds.GetOrCreateReferralCode(r.Context(), id)
	if err != nil {
		s.fail(w, r, "get_or_create_referral_code", err)
		return
	}
	writeJSON(w, http.StatusOK, toReferralCode(code))
}

func (s *Server) GetReferralSummary(w http.ResponseWriter, r *http.Request, id int64) {
	if !validID(w, id) {
		return
	}
	sum, err := s.cmds.ReferralSummary(r.Context(), id)
	if err != nil {
		s.fail(w, r, "referral_summary", err)
		return
	}
	writeJSON(w, http.StatusOK, ReferralSummary{
		Code:      toReferralCode(sum.Code),
		Uses:      toReferralUses(sum.Uses),
		BonusDays: sum.BonusDays,
		UsedCode:  toReferralUse(sum.UsedByMe),
	})
}

func (s *Server) ApplyReferral(w http.ResponseWriter, r *http.Request) {
	var body ApplyReferralJSONRequestBody
	if !decode(w, r, &body) {
		return
	}
	out, err := s.cmds.ApplyReferral(r.Context(), body.Code, body.Referred)
	if err != nil {
		s.fail(w, r, "apply_referral", err)
		return
	}
	writeJSON(w, http.StatusOK, toReferral(out))
}

func (s *Server) ListRecentReferrals(w http.ResponseWriter, r *http.Request, params ListRecentReferralsParams) {
	limit := defaultRecentSize
	if params.Limit != nil {
		if *params.Limit <= 0 {
			writeError(w, http.StatusBadRequest, domain.KindValidation, "limit must be a positive integer")
			return
		}
		limit = *params.Limit
	}
	uses, err := s.cmds.RecentReferrals(r.Context(), limit)
	if err != nil {
		s.fail(w, r, "recent_referrals", err)
		return
	}
	writeJSON(w, http.StatusOK, ReferralUseList{Items: toReferralUses(uses)})
}

func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.cmds.Stats(r.Context())
	if err != nil {
		s.fail(w, r, "stats", err)
		return
	}
	writeJSON(w, http.StatusOK, toStats(st))
}

func (s *Server) GetLicense(w http.ResponseWriter, r *http.Request, id int64) {
	if !validID(w, id) {
		return
	}
	lic, err := s.cmds.KeyTime(r.Context(), id)
	if err != nil {
		s.fail(w, r, "key_time", err)
		return
	}
	writeJSON(w, http.StatusOK, toLicense(lic))
}

func (s *Server) ResetLicenseDevice(w http.ResponseWriter, r *http.Request, id int64) {
	if !validID(w, id) {
		return
	}
	if err := s.cmds.ResetDevice(r.Context(), id); err != nil {
		s.fail(w, r, "reset_device", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusFor maps an outcome kind onto an HTTP status.
func statusFor(k domain.Kind) int {
	switch k {
	case domain.KindOK:
		return http.StatusOK
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindAlreadyProcessed:
		return http.StatusConflict
	case domain.KindBlocked:
		return http.StatusForbidden
	case domain.KindUpstreamRejected:
		return http.StatusUnprocessableEntity
	case domain.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case domain.KindPartialSuccess:
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logFailure(r.Context(), op, err)
	kind := domain.KindOf(err)
	msg := err.Error()
	if kind == domain.KindUnexpected {
		msg = "internal error"
	}
	writeError(w, statusFor(kind), kind, msg)
}

func (s *Server) logFailure(ctx context.Context, op string, err error) {
	if err == nil {
		return
	}
	l := logging.With(ctx, s.log)
	ev := l.Info()
	if k := domain.KindOf(err); k == domain.KindUnexpected || k == domain.KindUpstreamUnavailable {
		ev = l.Warn()
	}
	ev.Err(err).Str("op", op).Str("kind", string(domain.KindOf(err))).Msg("admin command failed")
}

// paramError answers generated binding failures, such as a non-numeric id
// or limit, with the validation body.
func (s *Server) paramError(w http.ResponseWriter, r *http.Request, err error) {
	msg := err.Error()
	var bad *InvalidParamFormatError
	if errors.As(err, &bad) {
		msg = fmt.Sprintf("%s must be a positive integer", bad.ParamName)
	}
	logging.With(r.Context(), s.log).Debug().Err(err).Msg("rejected request parameter")
	writeError(w, http.StatusBadRequest, domain.KindValidation, msg)
}

func validID(w http.ResponseWriter, id int64) bool {
	if id <= 0 {
		writeError(w, http.StatusBadRequest, domain.KindValidation, "id must be a positive integer")
		return false
	}
	return true
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		writeError(w, http.StatusUnsupportedMediaType, domain.KindValidation, "content type must be application/json")
		return false
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, domain.KindValidation, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, domain.KindValidation, "invalid json body")
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, kind domain.Kind, msg string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{Kind: string(kind), Message: msg}})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
