// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/BunsDev/avalanche-teleporter/api/restutil"
	"github.com/BunsDev/avalanche-teleporter/staker"
	"github.com/BunsDev/avalanche-teleporter/staker/validation"
	"github.com/BunsDev/avalanche-teleporter/tele"
)

// JSONValidation is the API shape of a lifecycle record.
type JSONValidation struct {
	ValidationID       tele.Bytes32 `json:"validationID"`
	NodeID             tele.Bytes32 `json:"nodeID"`
	Owner              tele.Address `json:"owner"`
	Weight             uint64       `json:"weight"`
	RegistrationExpiry uint64       `json:"registrationExpiry"`
	Status             string       `json:"status"`
	StartedAt          uint64       `json:"startedAt"`
	EndedAt            uint64       `json:"endedAt"`
	Rewarded           bool         `json:"rewarded"`
}

func convertValidation(id tele.Bytes32, entry *validation.Validation) *JSONValidation {
	return &JSONValidation{
		ValidationID:       id,
		NodeID:             entry.NodeID,
		Owner:              entry.Owner,
		Weight:             entry.Weight,
		RegistrationExpiry: entry.RegistrationExpiry,
		Status:             validation.StatusName(entry.Status),
		StartedAt:          entry.StartedAt,
		EndedAt:            entry.EndedAt,
		Rewarded:           entry.Rewarded,
	}
}

// Validators exposes read access to the manager.
type Validators struct {
	staker *staker.Staker
}

func NewValidators(staker *staker.Staker) *Validators {
	return &Validators{staker}
}

func (v *Validators) handleGetValidation(w http.ResponseWriter, req *http.Request) error {
	id, err := tele.ParseBytes32(mux.Vars(req)["id"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "id"))
	}
	entry, err := v.staker.Get(id)
	if err != nil {
		return err
	}
	if entry.IsEmpty() {
		return restutil.NotFound(errors.New("validation not found"))
	}
	return restutil.WriteJSON(w, convertValidation(id, entry))
}

func (v *Validators) handleGetByNode(w http.ResponseWriter, req *http.Request) error {
	nodeID, err := tele.ParseBytes32(mux.Vars(req)["nodeID"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "nodeID"))
	}
	id, entry, err := v.staker.GetByNode(nodeID)
	if err != nil {
		if errors.Is(err, staker.ErrUnknownValidation) {
			return restutil.NotFound(err)
		}
		return err
	}
	return restutil.WriteJSON(w, convertValidation(id, entry))
}

func (v *Validators) handleGetChurn(w http.ResponseWriter, _ *http.Request) error {
	period, err := v.staker.ChurnPeriod()
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, restutil.M{
		"startedAt":    period.StartedAt,
		"initialStake": period.InitialStake,
		"churnAmount":  period.ChurnAmount,
	})
}

func (v *Validators) handleGetWithdrawable(w http.ResponseWriter, req *http.Request) error {
	owner, err := tele.ParseAddress(mux.Vars(req)["owner"])
	if err != nil {
		return restutil.BadRequest(errors.WithMessage(err, "owner"))
	}
	balance, err := v.staker.Withdrawable(owner)
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, restutil.M{"withdrawable": balance.String()})
}

func (v *Validators) handleGetBootstrap(w http.ResponseWriter, _ *http.Request) error {
	remaining, err := v.staker.BootstrapRemaining()
	if err != nil {
		return err
	}
	return restutil.WriteJSON(w, restutil.M{
		"remaining": remaining.String(),
		"complete":  remaining.Sign() == 0,
	})
}

func (v *Validators) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/validations/{id}").
		Methods(http.MethodGet).
		Name("GET /validations/{id}").
		HandlerFunc(restutil.WrapHandlerFunc(v.handleGetValidation))
	sub.Path("/nodes/{nodeID}").
		Methods(http.MethodGet).
		Name("GET /nodes/{nodeID}").
		HandlerFunc(restutil.WrapHandlerFunc(v.handleGetByNode))
	sub.Path("/churn").
		Methods(http.MethodGet).
		Name("GET /churn").
		HandlerFunc(restutil.WrapHandlerFunc(v.handleGetChurn))
	sub.Path("/withdrawable/{owner}").
		Methods(http.MethodGet).
		Name("GET /withdrawable/{owner}").
		HandlerFunc(restutil.WrapHandlerFunc(v.handleGetWithdrawable))
	sub.Path("/bootstrap").
		Methods(http.MethodGet).
		Name("GET /bootstrap").
		HandlerFunc(restutil.WrapHandlerFunc(v.handleGetBootstrap))
}
