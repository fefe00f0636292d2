// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/blinklabs-io/surety/database/types"
	"github.com/blinklabs-io/surety/ledger"
)

const maxBodySize = 64 * 1024

// writeJSON writes a JSON response with the given status
// code.
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// statusForError maps a failure category to an HTTP status code
func statusForError(err error) int {
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrNotOperational):
		return http.StatusServiceUnavailable
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, ledger.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrUnknownFlight),
		errors.Is(err, ledger.ErrUnknownAirline),
		errors.Is(err, ledger.ErrUnknownRequest),
		errors.Is(err, ledger.ErrUnknownCandidate),
		errors.Is(err, ledger.ErrNoPolicy):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeCallError reports a failed surety call
func (a *Api) writeCallError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		a.logger.Error(
			"request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, status, "internal error")
		return
	}
	a.logger.Debug(
		"request rejected",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeError(w, status, err.Error())
}

func callerFromRequest(r *http.Request) (types.Address, error) {
	value := r.Header.Get(CallerHeader)
	if value == "" {
		return types.Address{}, fmt.Errorf("missing %s header", CallerHeader)
	}
	return types.ParseAddress(value)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// callContext parses the caller header and optional request body, writing a
// 400 response on failure
func callContext(
	w http.ResponseWriter,
	r *http.Request,
	body any,
) (types.Address, bool) {
	caller, err := callerFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return caller, false
	}
	if body != nil {
		if err := decodeBody(w, r, body); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return caller, false
		}
	}
	return caller, true
}

func pathAddress(w http.ResponseWriter, r *http.Request) (types.Address, bool) {
	address, err := types.ParseAddress(r.PathValue("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return address, false
	}
	return address, true
}

func pathKey(w http.ResponseWriter, r *http.Request) (types.Hash, bool) {
	key, err := types.ParseHash(r.PathValue("key"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return key, false
	}
	return key, true
}

func (a *Api) handleHealth(
	w http.ResponseWriter,
	r *http.Request,
) {
	if _, err := a.service.IsOperational(r.Context()); err != nil {
		a.logger.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

func (a *Api) handleStatus(
	w http.ResponseWriter,
	r *http.Request,
) {
	ctx := r.Context()
	resp := StatusResponse{
		Owner:    a.service.Owner(),
		Contract: a.service.ContractAddress(),
	}
	var err error
	if resp.Operational, err = a.service.IsOperational(ctx); err != nil {
		a.writeCallError(w, r, err)
		return
	}
	if resp.Airlines, err = a.service.CountAirlines(ctx); err != nil {
		a.writeCallError(w, r, err)
		return
	}
	if resp.OperationalAirlines, err = a.service.OperationalAirlinesCount(ctx); err != nil {
		a.writeCallError(w, r, err)
		return
	}
	if resp.Flights, err = a.service.FlightKeysSize(ctx); err != nil {
		a.writeCallError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *Api) handleSetOperational(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req OperationalRequest
	caller, ok := callContext(w, r, &req)
	if !ok {
		return
	}
	if err := a.service.SetOperational(r.Context(), caller, req.Operational); err != nil {
		a.writeCallError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (a *Api) handleRegisterAirline(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req RegisterAirlineRequest
	caller, ok := callContext(w, r, &req)
	if !ok {
		return
	}
	registered, err := a.service.RegisterAirline(r.Context(), caller, req.Airline)
	if err != nil {
		a.writeCallError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AirlineRegistrationResponse{
		Airline:    req.Airline,
		Registered: registered,
	})
}

func (a *Api) handleVoteAirline(
	w http.ResponseWriter,
	r *http.Request,
) {
	candidate, ok := pathAddress(w, r)
	if !ok {
		return
	}
	caller, ok := callContext(w, r, nil)
	if !ok {
		return
	}
	registered, err := a.service.VoteAirline(r.Context(), caller, candidate)
	if err != nil {
		a.writeCallError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AirlineRegistrationResponse{
		Airline:    candidate,
		Registered: registered,
	})
}

func (a *Api) handlePayFunding(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req AmountRequest
	caller, ok := callContext(w, r, &req)
	if !ok {
		return
	}
	if err := a.service.PayFunding(r.Context(), caller, req.Amount.Uint256()); err != nil {
		a.writeCallError(w, r, err)
		return
	}
	airline, err := a.service.GetAirline(r.Context(), caller)
	if err != nil {
		a.writeCallError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, airlineResponse(airline))
}

func (a *Api) handleGetAirline(
	w http.ResponseWriter,
	r *http.Request,
) {
	address, ok := pathAddress(w, r)
	if !ok {
		return
	}
	airline, err := a.service.GetAirline(r.Context(), address)
	if err != nil {
		a.writeCallError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, airlineResponse(airline))
}

func (a *Api) handlePendingAirlines(
	w http.ResponseWriter,
	r *http.Request,
) {
	ctx := r.Context()
	candidates, err := a.service.AirlinesAwaitingVotes(ctx)
	if err != nil {
		a.writeCallError(w, r, err)
		return
	}
	resp := make([]PendingAirlineResponse, 0, len(candidates))
	for _, candidate := range candidates {
		voters, err := a.service.VotesOnNewRegistration(ctx, candidate)
		if err != nil {
			a.writeCallError(w, r, err)
			return
		}
		resp = append(resp, PendingAirlineResponse{
			Candidate: candidate,
			Voters:    voters,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *Api) handleRegisterFlight(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req RegisterFlightRequest
	caller, ok := callContext(w, r, &req)
	if !ok {
		return
	}
	if req.FlightNumber == "" {
		writeError(w, http.StatusBadRequest, "flight_number is required")
		return
	}
	key, err := a.service.RegisterFlight(
		r.Context(),
		caller,
		caller,
		req.FlightNumber,
		req.Departure,
	)
	if err != nil {
		a.writeCallError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, FlightKeyResponse{Key: key})
}

func (a *Api) handleListFlights(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx := r.Context()
	total, err := a.service.FlightKeysSize(ctx)
	if err != nil {
		a.writeCallError(w, r, err)
		return
	}
	SetPaginationHeaders(w, total, params)
	resp := []FlightResponse{}
	for _, index := range params.Indexes(total) {
		key, err := a.service.FlightKeyAt(ctx, index)
		if err != nil {
			a.writeCallError(w, r, err)
			return
		}
		record, err := a.service.GetFlight(ctx, key)
		if err != nil {
			a.writeCallError(w, r, err)
			return
		}
		resp = append(resp, flightResponse(record))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *Api) handleGetFlight(
	w http.ResponseWriter,
	r *http.Request,
) {
	key, ok := pathKey(w, r)
	if !ok {
		return
	}
	record, err := a.service.GetFlight(r.Context(), key)
	if err != nil {
		a.writeCallError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flightResponse(record))
}

func (a *Api) handleBuyInsurance(
	w http.ResponseWriter,
	r *http.Request,
) {
	key, ok := pathKey(w, r)
	if !ok {
		return
	}
	var req BuyInsuranceRequest
	caller, ok := callContext(w, r, &req)
	if !ok {
		return
	}
	policyID, err := a.service.BuyInsurance(r.Context(), caller, key, req.Premium.Uint256())
	if err != nil {
		a.writeCallError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, PolicyIDResponse{PolicyID: policyID})
}

// handleListPolicies lists the policies on a flight, or only the passenger's
// when the passenger query parameter is set
func (a *Api) handleListPolicies(
	w http.ResponseWriter,
	r *http.Request,
) {
	key, ok := pathKey(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	resp := []PolicyResponse{}
	if passengerParam := r.URL.Query().Get("passenger"); passengerParam != "" {
		passenger, err := types.ParseAddress(passengerParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		policies, err := a.service.PoliciesFor(ctx, key, passenger)
		if err != nil {
			a.writeCallError(w, r, err)
			return
		}
		for i := range policies {
			resp = append(resp, policyResponse(&policies[i]))
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	total, err := a.service.InsurancesSize(ctx, key)
	if err != nil {
		a.writeCallError(w, r, err)
		return
	}
	SetPaginationHeaders(w, total, params)
	for _, index := range params.Indexes(total) {
		policy, err := a.service.GetInsuranceForIndex(ctx, key, index)
		if err != nil {
			a.writeCallError(w, r, err)
			return
		}
		resp = append(resp, policyResponse(policy))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *Api) handleWithdraw(
	w http.ResponseWriter,
	r *http.Request,
) {
	key, ok := pathKey(w, r)
	if !ok {
		return
	}
	caller, ok := callContext(w, r, nil)
	if !ok {
		return
	}
	amount, err := a.service.Withdraw(r.Context(), caller, key)
	if err != nil {
		a.writeCallError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AmountResponse{Amount: types.NewAmount(amount)})
}

func (a *Api) handleFetchFlightStatus(
	w http.ResponseWriter,
	r *http.Request,
) {
	key, ok := pathKey(w, r)
	if !ok {
		return
	}
	caller, ok := callContext(w, r, nil)
	if !ok {
		return
	}
	ctx := r.Context()
	record, err := a.service.GetFlight(ctx, key)
	if err != nil {
		a.writeCallError(w, r, err)
		return
	}
	index, err := a.service.FetchFlightStatus(
		ctx,
		caller,
		record.Airline,
		record.FlightNumber,
		record.Departure,
	)
	if err != nil {
		a.writeCallError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, IndexResponse{Index: index})
}

func (a *Api) handleRegisterOracle(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req RegisterOracleRequest
	caller, ok := callContext(w, r, &req)
	if !ok {
		return
	}
	indexes, err := a.service.RegisterOracle(r.Context(), caller, req.Fee.Uint256())
	if err != nil {
		a.writeCallError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, IndexesResponse{Indexes: indexes})
}

func (a *Api) handleGetIndexes(
	w http.ResponseWriter,
	r *http.Request,
) {
	address, ok := pathAddress(w, r)
	if !ok {
		return
	}
	indexes, err := a.service.GetMyIndexes(r.Context(), address)
	if err != nil {
		a.writeCallError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, IndexesResponse{Indexes: indexes})
}

func (a *Api) handleSubmitResponse(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req OracleResponseRequest
	caller, ok := callContext(w, r, &req)
	if !ok {
		return
	}
	err := a.service.SubmitOracleResponse(
		r.Context(),
		caller,
		req.Index,
		req.Airline,
		req.FlightNumber,
		req.Departure,
		req.Status,
	)
	if err != nil {
		a.writeCallError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *Api) handleGetRequest(
	w http.ResponseWriter,
	r *http.Request,
) {
	key, ok := pathKey(w, r)
	if !ok {
		return
	}
	request, err := a.service.GetRequest(r.Context(), key)
	if err != nil {
		a.writeCallError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requestResponse(request))
}

// handleEvents pages through the notification journal in sequence order
func (a *Api) handleEvents(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if params.Order == PaginationOrderDesc {
		writeError(w, http.StatusBadRequest, "events are only available in ascending order")
		return
	}
	total, err := a.service.EventCount()
	if err != nil {
		a.writeCallError(w, r, err)
		return
	}
	SetPaginationHeaders(w, int(total), params) //nolint:gosec // journal length fits in an int
	resp := []EventResponse{}
	indexes := params.Indexes(int(total)) //nolint:gosec // journal length fits in an int
	if len(indexes) == 0 {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	// Journal sequence numbers start at 1
	from := uint64(indexes[0]) + 1 //nolint:gosec // indexes are never negative
	events, err := a.service.Events(from, len(indexes))
	if err != nil {
		a.writeCallError(w, r, err)
		return
	}
	for _, evt := range events {
		resp = append(resp, EventResponse{
			Seq:       evt.Seq,
			Type:      evt.Type,
			Timestamp: evt.Timestamp,
			Data:      evt.Data,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *Api) handleBalance(
	w http.ResponseWriter,
	r *http.Request,
) {
	address, ok := pathAddress(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{
		Address: address,
		Balance: types.NewAmount(a.service.Balance(address)),
	})
}

func (a *Api) handleFaucet(
	w http.ResponseWriter,
	r *http.Request,
) {
	address, ok := pathAddress(w, r)
	if !ok {
		return
	}
	var req AmountRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.service.Fund(address, req.Amount.Uint256()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{
		Address: address,
		Balance: types.NewAmount(a.service.Balance(address)),
	})
}
