package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mailgun/holster/v4/syncutil"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ssgreg/repeat"

	"github.com/chuck-h/rainbow-go/internal/lib/misc"
	"github.com/chuck-h/rainbow-go/internal/lib/rainbow"
)

// refreshEveryMinutes aligns gauge refreshes to wall-clock boundaries so
// scrapes from multiple daemons line up.
const refreshEveryMinutes = 1

// Daemon serves the read-only ledger API and keeps the prometheus gauges
// current. It holds no ledger state of its own; every request reads a
// fresh snapshot through the store.
type Daemon struct {
	logger *slog.Logger
	token  *rainbow.Token

	// embed mutex for locking state for members below the mutex
	sync.RWMutex
	lastRefresh time.Time
}

func newDaemon() *Daemon {
	return &Daemon{
		logger: App.logger,
		token:  App.token,
	}
}

func (d *Daemon) start(ctx context.Context, wg *sync.WaitGroup, listen string) {
	d.logger.Info("Starting rainbow daemon")

	wg.Add(1)
	go func() {
		defer wg.Done()
		d.MetricsWatcher(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		d.serveAPI(ctx, listen)
	}()
}

// MetricsWatcher refreshes the per-symbol gauges on wall-clock aligned
// ticks until the context is cancelled.
func (d *Daemon) MetricsWatcher(ctx context.Context) {
	defer d.logger.Info("Exiting MetricsWatcher")
	d.logger.Info("Starting MetricsWatcher")

	d.refreshMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(durationToNextRefresh(time.Now(), refreshEveryMinutes)):
			if err := d.refreshMetricsWithRetry(); err != nil {
				misc.Warnf(d.logger, "metrics refresh failed: %v", err)
			}
		}
	}
}

func durationToNextRefresh(curTime time.Time, refreshMinutes int) time.Duration {
	step := time.Duration(refreshMinutes) * time.Minute
	return curTime.Truncate(step).Add(step).Sub(curTime)
}

func (d *Daemon) refreshMetricsWithRetry() error {
	return repeat.Repeat(
		repeat.Fn(func() error {
			if err := d.refreshMetrics(); err != nil {
				return repeat.HintTemporary(err)
			}
			return nil
		}),
		repeat.StopOnSuccess(),
		repeat.LimitMaxTries(10),
		repeat.WithDelay(
			repeat.SetContextHintStop(),
			(&repeat.FullJitterBackoffBuilder{
				BaseDelay: 1 * time.Second,
				MaxDelay:  10 * time.Second,
			}).Set(),
		),
	)
}

// refreshMetrics walks every symbol and republishes its supply and stake
// gauges, fanning the per-symbol reads out across a small worker set.
func (d *Daemon) refreshMetrics() error {
	symbols, err := d.token.Symbols()
	if err != nil {
		return err
	}
	rainbow.SetTokenCount(len(symbols))

	fanOut := syncutil.NewFanOut(8)
	for _, code := range symbols {
		fanOut.Run(func(val any) error {
			code := val.(rainbow.SymbolCode)
			st, ok, err := d.token.GetStats(code)
			if err != nil || !ok {
				return err
			}
			rows, err := d.token.GetStakes(code)
			if err != nil {
				return err
			}
			rainbow.SetSupplyMetrics(st, len(rows))
			return nil
		}, code)
	}
	if errs := fanOut.Wait(); len(errs) > 0 {
		return errs[0]
	}

	d.Lock()
	d.lastRefresh = time.Now()
	d.Unlock()
	return nil
}

func (d *Daemon) LastRefresh() time.Time {
	d.RLock()
	defer d.RUnlock()
	return d.lastRefresh
}

func (d *Daemon) serveAPI(ctx context.Context, listen string) {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/v1", func(r chi.Router) {
		r.Get("/tokens", d.handleTokens)
		r.Get("/token/{symbol}", d.handleToken)
		r.Get("/token/{symbol}/stakes", d.handleStakes)
		r.Get("/token/{symbol}/accounts", d.handleAccounts)
		r.Get("/account/{owner}", d.handleHoldings)
	})

	srv := &http.Server{
		Addr:              listen,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	misc.Infof(d.logger, "serving ledger api on %s", listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		misc.Errorf(d.logger, "api server error: %v", err)
	}
}

type tokenResponse struct {
	Symbol        string `json:"symbol"`
	Supply        string `json:"supply"`
	MaxSupply     string `json:"max_supply"`
	Issuer        string `json:"issuer"`
	MembershipMgr string `json:"membership_mgr"`
	WithdrawalMgr string `json:"withdrawal_mgr"`
	WithdrawTo    string `json:"withdraw_to"`
	FreezeMgr     string `json:"freeze_mgr"`
	Approved      bool   `json:"approved"`
	Frozen        bool   `json:"transfers_frozen"`
	RedeemLock    string `json:"redeem_locked_until,omitempty"`
	ConfigLock    string `json:"config_locked_until,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
	Logo          string `json:"logo,omitempty"`
	WebLink       string `json:"web_link,omitempty"`
}

type stakeResponse struct {
	Index          uint64 `json:"index"`
	TokenBucket    string `json:"token_bucket"`
	StakePerBucket string `json:"stake_per_bucket"`
	Contract       string `json:"stake_token_contract"`
	StakeTo        string `json:"stake_to"`
	Deferred       bool   `json:"deferred"`
	Proportional   bool   `json:"proportional"`
}

type balanceResponse struct {
	Owner   string `json:"owner"`
	Balance string `json:"balance"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (d *Daemon) symbolParam(w http.ResponseWriter, r *http.Request) (rainbow.SymbolCode, bool) {
	code, err := rainbow.ParseSymbolCode(chi.URLParam(r, "symbol"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, false
	}
	return code, true
}

func (d *Daemon) handleTokens(w http.ResponseWriter, r *http.Request) {
	symbols, err := d.token.Symbols()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		out = append(out, s.String())
	}
	writeJSON(w, out)
}

func (d *Daemon) handleToken(w http.ResponseWriter, r *http.Request) {
	code, ok := d.symbolParam(w, r)
	if !ok {
		return
	}
	st, found, err := d.token.GetStats(code)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "token does not exist", http.StatusNotFound)
		return
	}
	resp := tokenResponse{
		Symbol:    st.Supply.Symbol.String(),
		Supply:    st.Supply.String(),
		MaxSupply: st.MaxSupply.String(),
		Issuer:    st.Issuer.String(),
	}
	if cfg, found, err := d.token.GetConfig(code); err == nil && found {
		resp.MembershipMgr = cfg.MembershipMgr.WireName().String()
		resp.WithdrawalMgr = cfg.WithdrawalMgr.String()
		resp.WithdrawTo = cfg.WithdrawTo.String()
		resp.FreezeMgr = cfg.FreezeMgr.String()
		resp.Approved = cfg.Approved
		resp.Frozen = cfg.TransfersFrozen
		if !cfg.RedeemLockedUntil.IsZero() {
			resp.RedeemLock = cfg.RedeemLockedUntil.Format(time.RFC3339)
		}
		if !cfg.ConfigLockedUntil.IsZero() {
			resp.ConfigLock = cfg.ConfigLockedUntil.Format(time.RFC3339)
		}
	}
	if disp, found, err := d.token.GetDisplay(code); err == nil && found {
		resp.DisplayName = disp.Name
		resp.Logo = disp.Logo
		resp.WebLink = disp.WebLink
	}
	writeJSON(w, resp)
}

func (d *Daemon) handleStakes(w http.ResponseWriter, r *http.Request) {
	code, ok := d.symbolParam(w, r)
	if !ok {
		return
	}
	rows, err := d.token.GetStakes(code)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]stakeResponse, 0, len(rows))
	for _, s := range rows {
		out = append(out, stakeResponse{
			Index:          s.Index,
			TokenBucket:    s.TokenBucket.String(),
			StakePerBucket: s.StakePerBucket.String(),
			Contract:       s.StakeTokenContract.String(),
			StakeTo:        s.StakeTo.WireName().String(),
			Deferred:       s.Deferred,
			Proportional:   s.Proportional,
		})
	}
	writeJSON(w, out)
}

func (d *Daemon) handleAccounts(w http.ResponseWriter, r *http.Request) {
	code, ok := d.symbolParam(w, r)
	if !ok {
		return
	}
	rows, err := d.token.GetAccounts(code)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]balanceResponse, 0, len(rows))
	for _, a := range rows {
		out = append(out, balanceResponse{Owner: a.Owner.String(), Balance: a.Account.Balance.String()})
	}
	writeJSON(w, out)
}

func (d *Daemon) handleHoldings(w http.ResponseWriter, r *http.Request) {
	owner, err := rainbow.NewName(chi.URLParam(r, "owner"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	holdings, err := d.token.GetHoldings(owner)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]string, 0, len(holdings))
	for _, h := range holdings {
		out = append(out, h.String())
	}
	writeJSON(w, out)
}
