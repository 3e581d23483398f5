package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/quantfold/vault/internal/domain"
	"github.com/quantfold/vault/internal/fund"
	"github.com/quantfold/vault/internal/strategy"
	"github.com/quantfold/vault/internal/token"
)

// FundHandlers exposes the fund engine's operations over HTTP. The caller
// account arrives in the request body: the platform fronting this API is
// trusted to have authenticated it, and the engine's access control still
// decides what the account may do.
type FundHandlers struct {
	fund    *fund.Fund
	asset   *token.Token
	custody string
	devMode bool
	log     zerolog.Logger

	// sims tracks the venues created through this API so dev-mode gain
	// simulation can find them by name.
	sims map[string]*strategy.Sim
}

// NewFundHandlers creates a new fund handler
func NewFundHandlers(f *fund.Fund, asset *token.Token, custody string, devMode bool, log zerolog.Logger) *FundHandlers {
	return &FundHandlers{
		fund:    f,
		asset:   asset,
		custody: custody,
		devMode: devMode,
		log:     log.With().Str("handler", "fund").Logger(),
		sims:    make(map[string]*strategy.Sim),
	}
}

// RegisterRoutes registers all fund routes
func (h *FundHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/fund", func(r chi.Router) {
		r.Get("/status", h.HandleStatus)
		r.Get("/balance/{account}", h.HandleBalance)
		r.Post("/deposit", h.HandleDeposit)
		r.Post("/transfer", h.HandleTransfer)
		r.Post("/deploy", h.HandleDeploy)
		r.Post("/treasury", h.HandleSetTreasury)
		r.Post("/fee-rate", h.HandleSetFeeRate)
		r.Post("/operators", h.HandleAddOperator)
		r.Delete("/operators", h.HandleRemoveOperator)
	})

	r.Route("/strategies", func(r chi.Router) {
		r.Post("/", h.HandleAddStrategy)
		r.Delete("/", h.HandleRemoveStrategies)
		r.Put("/weights", h.HandleSetWeights)
		if h.devMode {
			r.Post("/accrue", h.HandleAccrue)
		}
	})

	r.Route("/redemptions", func(r chi.Router) {
		r.Post("/", h.HandleRequestRedemption)
		r.Post("/process", h.HandleProcessBatch)
		r.Post("/trim", h.HandleTrim)
	})

	r.Post("/fees/collect", h.HandleCollectFees)

	if h.devMode {
		r.Post("/token/faucet", h.HandleFaucet)
		r.Post("/token/approve", h.HandleApprove)
	}
}

// HandleStatus returns the fund's current state
func (h *FundHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.fund.Status(r.Context())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, status)
}

// HandleBalance returns an account's asset-denominated balance
func (h *FundHandlers) HandleBalance(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "account")
	balance, err := h.fund.BalanceOf(r.Context(), account)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"account": account, "balance": balance})
}

// HandleDeposit pulls capital from the payer and mints shares
func (h *FundHandlers) HandleDeposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Payer    string `json:"payer"`
		Receiver string `json:"receiver"`
		Amount   uint64 `json:"amount"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	minted, err := h.fund.Deposit(r.Context(), req.Payer, req.Receiver, req.Amount)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"shares_minted": minted})
}

// HandleTransfer moves asset value between share holders
func (h *FundHandlers) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From   string `json:"from"`
		To     string `json:"to"`
		Amount uint64 `json:"amount"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.fund.Transfer(r.Context(), req.From, req.To, req.Amount); err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleDeploy rebalances capital toward target weights
func (h *FundHandlers) HandleDeploy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.fund.DeployCapital(r.Context(), req.Caller); err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleAddStrategy registers a new simulated venue
func (h *FundHandlers) HandleAddStrategy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
		Name   string `json:"name"`
		Weight uint64 `json:"weight"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "strategy name is required")
		return
	}
	sim := strategy.NewSim(req.Name, h.custody, h.asset)
	if err := h.fund.AddStrategy(r.Context(), req.Caller, sim, req.Weight); err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.sims[req.Name] = sim
	h.writeJSON(w, http.StatusOK, map[string]any{"name": req.Name, "index": h.fund.StrategyCount() - 1})
}

// HandleRemoveStrategies removes registry entries by index
func (h *FundHandlers) HandleRemoveStrategies(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller  string `json:"caller"`
		Indexes []int  `json:"indexes"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.fund.RemoveStrategies(r.Context(), req.Caller, req.Indexes); err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleSetWeights replaces all target weights
func (h *FundHandlers) HandleSetWeights(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller  string   `json:"caller"`
		Weights []uint64 `json:"weights"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.fund.SetWeights(r.Context(), req.Caller, req.Weights); err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleAccrue simulates external yield on a venue (dev mode only)
func (h *FundHandlers) HandleAccrue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
		Gain uint64 `json:"gain"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	sim, ok := h.sims[req.Name]
	if !ok {
		h.writeError(w, http.StatusNotFound, "unknown strategy: "+req.Name)
		return
	}
	if err := sim.Accrue(r.Context(), req.Gain); err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleRequestRedemption locks shares and enqueues a withdrawal request
func (h *FundHandlers) HandleRequestRedemption(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Requester string `json:"requester"`
		Shares    uint64 `json:"shares"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	index, err := h.fund.RequestRedemption(r.Context(), req.Requester, req.Shares)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"index": index})
}

// HandleProcessBatch settles a range of queued redemptions
func (h *FundHandlers) HandleProcessBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller    string `json:"caller"`
		Start     int    `json:"start"`
		BatchSize int    `json:"batch_size"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.fund.ProcessRedemptionsBatch(r.Context(), req.Caller, req.Start, req.BatchSize); err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleTrim compacts the redemption queue
func (h *FundHandlers) HandleTrim(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	removed, err := h.fund.TrimQueue(r.Context(), req.Caller)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
}

// HandleCollectFees accrues the performance fee
func (h *FundHandlers) HandleCollectFees(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller string `json:"caller"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	minted, err := h.fund.CollectFees(r.Context(), req.Caller)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"shares_minted": minted})
}

// HandleSetTreasury changes the fee-receiving account
func (h *FundHandlers) HandleSetTreasury(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller  string `json:"caller"`
		Account string `json:"account"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.fund.SetTreasury(r.Context(), req.Caller, req.Account); err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleSetFeeRate changes the performance-fee rate
func (h *FundHandlers) HandleSetFeeRate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller      string `json:"caller"`
		RatePercent uint64 `json:"rate_percent"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.fund.SetFeeRate(r.Context(), req.Caller, req.RatePercent); err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleAddOperator whitelists an operator account
func (h *FundHandlers) HandleAddOperator(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller  string `json:"caller"`
		Account string `json:"account"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.fund.AddOperator(r.Context(), req.Caller, req.Account); err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleRemoveOperator revokes an operator account
func (h *FundHandlers) HandleRemoveOperator(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Caller  string `json:"caller"`
		Account string `json:"account"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.fund.RemoveOperator(r.Context(), req.Caller, req.Account); err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleFaucet mints backing asset to an account (dev mode only)
func (h *FundHandlers) HandleFaucet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Account string `json:"account"`
		Amount  uint64 `json:"amount"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.asset.Mint(r.Context(), req.Account, req.Amount); err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleApprove sets an asset allowance for the custody account (dev mode only)
func (h *FundHandlers) HandleApprove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Owner  string `json:"owner"`
		Amount uint64 `json:"amount"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.asset.Approve(r.Context(), req.Owner, h.custody, req.Amount); err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *FundHandlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// statusForError maps engine errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInvalidAdapter),
		errors.Is(err, domain.ErrZeroShares),
		errors.Is(err, domain.ErrRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrInsufficientAllowance),
		errors.Is(err, domain.ErrInsufficientLiquidity),
		errors.Is(err, domain.ErrNoGains),
		errors.Is(err, domain.ErrReentrancy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *FundHandlers) writeEngineError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Engine operation failed")
	}
	h.writeError(w, status, err.Error())
}

func (h *FundHandlers) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *FundHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
