package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"swapescrow/config"
	nativecommon "swapescrow/native/common"
	"swapescrow/native/escrow"
	"swapescrow/observability"
)

const (
	codeEscrowInvalidParams = -32021
	codeEscrowNotFound      = -32022
	codeEscrowForbidden     = -32023
	codeEscrowConflict      = -32024
	codeEscrowInternal      = -32025
	codeEscrowUnfillable    = -32026
	codeEscrowPaused        = -32027
)

type escrowMakeParams struct {
	Maker           string `json:"maker"`
	FundingAccount  string `json:"fundingAccount,omitempty"`
	EscrowType      string `json:"escrowType"`
	OfferedMint     string `json:"offeredMint"`
	RequestedMint   string `json:"requestedMint"`
	AmountOffered   string `json:"amountOffered"`
	AmountRequested string `json:"amountRequested"`
	EndPrice        string `json:"endPrice,omitempty"`
	StartTime       int64  `json:"startTime,omitempty"`
	EndTime         int64  `json:"endTime,omitempty"`
	Seed            string `json:"seed"`
}

type escrowTakeParams struct {
	Taker           string `json:"taker"`
	FundingAccount  string `json:"fundingAccount,omitempty"`
	Address         string `json:"address"`
	EscrowType      string `json:"escrowType"`
	AmountOffered   string `json:"amountOffered"`
	AmountRequested string `json:"amountRequested"`
}

type escrowGetParams struct {
	Address string `json:"address"`
}

type escrowSubmitParams struct {
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

type escrowMakeResult struct {
	Address string `json:"address"`
	Bump    uint8  `json:"bump"`
}

type orderJSON struct {
	Address                string `json:"address"`
	Maker                  string `json:"maker"`
	OfferedMint            string `json:"offeredMint"`
	RequestedMint          string `json:"requestedMint"`
	EscrowType             string `json:"escrowType"`
	AmountOfferedTotal     string `json:"amountOfferedTotal"`
	AmountOfferedRemaining string `json:"amountOfferedRemaining"`
	AmountRequestedTotal   string `json:"amountRequestedTotal,omitempty"`
	StartPrice             string `json:"startPrice,omitempty"`
	EndPrice               string `json:"endPrice,omitempty"`
	StartTime              int64  `json:"startTime,omitempty"`
	EndTime                int64  `json:"endTime,omitempty"`
	Seed                   string `json:"seed"`
	Bump                   uint8  `json:"bump"`
}

func (s *Server) handleEscrowMake(w http.ResponseWriter, r *http.Request, req *RPCRequest) string {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return "unauthorized"
	}
	var params escrowMakeParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return "invalid_params"
	}
	ix, err := params.instruction(s.engine.ProgramID())
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeEscrowInvalidParams, "invalid_params", err.Error())
		return "invalid_params"
	}
	addr, err := s.engine.HandleMake(ix, ix.Maker)
	if err != nil {
		writeEscrowError(w, req.ID, err)
		return "error"
	}
	observability.Metrics().OrdersCreated.WithLabelValues(ix.EscrowType.String()).Inc()
	writeResult(w, req.ID, escrowMakeResult{Address: "0x" + hex.EncodeToString(addr[:]), Bump: ix.Bump})
	return "ok"
}

func (s *Server) handleEscrowTake(w http.ResponseWriter, r *http.Request, req *RPCRequest) string {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return "unauthorized"
	}
	var params escrowTakeParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return "invalid_params"
	}
	taker, err := config.ParseAddress(params.Taker)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeEscrowInvalidParams, "invalid_params", err.Error())
		return "invalid_params"
	}
	ix, err := params.instruction(taker)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeEscrowInvalidParams, "invalid_params", err.Error())
		return "invalid_params"
	}
	if err := s.engine.HandleTake(ix, taker); err != nil {
		writeEscrowError(w, req.ID, err)
		return "error"
	}
	metrics := observability.Metrics()
	metrics.Fills.WithLabelValues(ix.EscrowType.String()).Inc()
	if _, err := s.engine.Order(ix.OrderAddress); errors.Is(err, escrow.ErrOrderNotFound) {
		metrics.OrdersClosed.Inc()
	}
	writeResult(w, req.ID, map[string]bool{"filled": true})
	return "ok"
}

func (s *Server) handleEscrowGet(w http.ResponseWriter, req *RPCRequest) string {
	var params escrowGetParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return "invalid_params"
	}
	addr, err := config.ParseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeEscrowInvalidParams, "invalid_params", err.Error())
		return "invalid_params"
	}
	order, err := s.engine.Order(addr)
	if err != nil {
		writeEscrowError(w, req.ID, err)
		return "error"
	}
	writeResult(w, req.ID, orderToJSON(order))
	return "ok"
}

func (s *Server) handleEscrowSubmit(w http.ResponseWriter, r *http.Request, req *RPCRequest) string {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return "unauthorized"
	}
	var params escrowSubmitParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return "invalid_params"
	}
	payload, err := decodeHex(params.Payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeEscrowInvalidParams, "invalid_params", "payload: "+err.Error())
		return "invalid_params"
	}
	sig, err := decodeHex(params.Signature)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeEscrowInvalidParams, "invalid_params", "signature: "+err.Error())
		return "invalid_params"
	}
	signer, err := escrow.RecoverSigner(payload, sig)
	if err != nil {
		writeEscrowError(w, req.ID, err)
		return "error"
	}
	addr, err := s.dispatcher.Dispatch(payload, signer)
	if err != nil {
		writeEscrowError(w, req.ID, err)
		return "error"
	}
	writeResult(w, req.ID, map[string]string{"address": "0x" + hex.EncodeToString(addr[:])})
	return "ok"
}

func (p *escrowMakeParams) instruction(programID [20]byte) (*escrow.MakeInstruction, error) {
	maker, err := config.ParseAddress(p.Maker)
	if err != nil {
		return nil, fmt.Errorf("maker: %w", err)
	}
	funding := maker
	if strings.TrimSpace(p.FundingAccount) != "" {
		if funding, err = config.ParseAddress(p.FundingAccount); err != nil {
			return nil, fmt.Errorf("fundingAccount: %w", err)
		}
	}
	escrowType, err := parseEscrowType(p.EscrowType)
	if err != nil {
		return nil, err
	}
	offeredMint, err := config.ParseAddress(p.OfferedMint)
	if err != nil {
		return nil, fmt.Errorf("offeredMint: %w", err)
	}
	requestedMint, err := config.ParseAddress(p.RequestedMint)
	if err != nil {
		return nil, fmt.Errorf("requestedMint: %w", err)
	}
	amountOffered, err := config.ParseAmount(p.AmountOffered)
	if err != nil {
		return nil, fmt.Errorf("amountOffered: %w", err)
	}
	amountRequested, err := config.ParseAmount(p.AmountRequested)
	if err != nil {
		return nil, fmt.Errorf("amountRequested: %w", err)
	}
	endPrice := big.NewInt(0)
	if strings.TrimSpace(p.EndPrice) != "" {
		if endPrice, err = config.ParseAmount(p.EndPrice); err != nil {
			return nil, fmt.Errorf("endPrice: %w", err)
		}
	}
	seed, err := parseSeed(p.Seed)
	if err != nil {
		return nil, err
	}
	addr, bump := escrow.DeriveAddress(programID, maker, seed)
	return &escrow.MakeInstruction{
		EscrowType:      escrowType,
		Maker:           maker,
		FundingAccount:  funding,
		OfferedMint:     offeredMint,
		RequestedMint:   requestedMint,
		AmountOffered:   amountOffered,
		AmountRequested: amountRequested,
		EndPrice:        endPrice,
		StartTime:       p.StartTime,
		EndTime:         p.EndTime,
		Seed:            seed,
		Bump:            bump,
		OrderAddress:    addr,
	}, nil
}

func (p *escrowTakeParams) instruction(taker [20]byte) (*escrow.TakeInstruction, error) {
	addr, err := config.ParseAddress(p.Address)
	if err != nil {
		return nil, fmt.Errorf("address: %w", err)
	}
	funding := taker
	if strings.TrimSpace(p.FundingAccount) != "" {
		if funding, err = config.ParseAddress(p.FundingAccount); err != nil {
			return nil, fmt.Errorf("fundingAccount: %w", err)
		}
	}
	escrowType, err := parseEscrowType(p.EscrowType)
	if err != nil {
		return nil, err
	}
	amountOffered, err := config.ParseAmount(p.AmountOffered)
	if err != nil {
		return nil, fmt.Errorf("amountOffered: %w", err)
	}
	amountRequested, err := config.ParseAmount(p.AmountRequested)
	if err != nil {
		return nil, fmt.Errorf("amountRequested: %w", err)
	}
	return &escrow.TakeInstruction{
		EscrowType:      escrowType,
		OrderAddress:    addr,
		FundingAccount:  funding,
		OfferedAmount:   amountOffered,
		RequestedAmount: amountRequested,
	}, nil
}

func orderToJSON(o *escrow.Order) *orderJSON {
	out := &orderJSON{
		Address:       "0x" + hex.EncodeToString(o.Address[:]),
		Maker:         "0x" + hex.EncodeToString(o.Maker[:]),
		OfferedMint:   "0x" + hex.EncodeToString(o.OfferedMint[:]),
		RequestedMint: "0x" + hex.EncodeToString(o.RequestedMint[:]),
		EscrowType:    o.EscrowType.String(),
		Seed:          "0x" + hex.EncodeToString(o.Seed[:]),
		Bump:          o.Bump,
	}
	if o.AmountOfferedTotal != nil {
		out.AmountOfferedTotal = o.AmountOfferedTotal.String()
	}
	if o.AmountOfferedRemaining != nil {
		out.AmountOfferedRemaining = o.AmountOfferedRemaining.String()
	}
	if o.EscrowType == escrow.TypeDutchAuction {
		if o.StartPrice != nil {
			out.StartPrice = o.StartPrice.String()
		}
		if o.EndPrice != nil {
			out.EndPrice = o.EndPrice.String()
		}
		out.StartTime = o.StartTime
		out.EndTime = o.EndTime
	} else if o.AmountRequestedTotal != nil {
		out.AmountRequestedTotal = o.AmountRequestedTotal.String()
	}
	return out
}

func decodeParams(req *RPCRequest, out interface{}) *RPCError {
	if len(req.Params) != 1 {
		return &RPCError{Code: codeEscrowInvalidParams, Message: "invalid_params", Data: "exactly one parameter object expected"}
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return &RPCError{Code: codeEscrowInvalidParams, Message: "invalid_params", Data: err.Error()}
	}
	return nil
}

func parseEscrowType(value string) (escrow.EscrowType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "simple":
		return escrow.TypeSimple, nil
	case "partial":
		return escrow.TypePartial, nil
	case "dutch_auction", "dutch":
		return escrow.TypeDutchAuction, nil
	default:
		return 0, fmt.Errorf("unknown escrow type %q", value)
	}
}

func parseSeed(value string) ([2]byte, error) {
	var seed [2]byte
	raw, err := decodeHex(value)
	if err != nil {
		return seed, fmt.Errorf("seed: %w", err)
	}
	if len(raw) != 2 {
		return seed, fmt.Errorf("seed must be 2 bytes, got %d", len(raw))
	}
	copy(seed[:], raw)
	return seed, nil
}

func decodeHex(value string) ([]byte, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	return hex.DecodeString(trimmed)
}

func writeEscrowError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, escrow.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, id, codeEscrowNotFound, "not_found", err.Error())
	case errors.Is(err, escrow.ErrEscrowAlreadyExists):
		writeError(w, http.StatusConflict, id, codeEscrowConflict, "conflict", err.Error())
	case errors.Is(err, escrow.ErrInvalidMaker), errors.Is(err, escrow.ErrInvalidTokenOwner):
		writeError(w, http.StatusForbidden, id, codeEscrowForbidden, "forbidden", err.Error())
	case errors.Is(err, escrow.ErrInsufficientFunds),
		errors.Is(err, escrow.ErrInsufficientRemainingAmount):
		writeError(w, http.StatusUnprocessableEntity, id, codeEscrowUnfillable, "unfillable", err.Error())
	case errors.Is(err, escrow.ErrPdaMismatch),
		errors.Is(err, escrow.ErrInvalidEscrowType),
		errors.Is(err, escrow.ErrAmountMismatch),
		errors.Is(err, escrow.ErrInvalidAmount),
		errors.Is(err, escrow.ErrTimeBoundsInvalid),
		errors.Is(err, escrow.ErrInvalidTokenMint),
		errors.Is(err, escrow.ErrInvalidInstruction):
		writeError(w, http.StatusBadRequest, id, codeEscrowInvalidParams, "invalid_params", err.Error())
	case errors.Is(err, nativecommon.ErrModulePaused):
		writeError(w, http.StatusServiceUnavailable, id, codeEscrowPaused, "paused", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, id, codeEscrowInternal, "internal_error", err.Error())
	}
}
