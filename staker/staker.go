// Copyright (c) 2025 The Avalanche Teleporter developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staker orchestrates validator registration and removal against a
// remote authority. It applies admission control, persists lifecycle records
// and hands canonical messages to the cross-chain bus.
package staker

import (
	"bytes"
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/BunsDev/avalanche-teleporter/log"
	"github.com/BunsDev/avalanche-teleporter/staker/churn"
	"github.com/BunsDev/avalanche-teleporter/staker/validation"
	"github.com/BunsDev/avalanche-teleporter/state"
	"github.com/BunsDev/avalanche-teleporter/tele"
	"github.com/BunsDev/avalanche-teleporter/warp"
)

var logger = log.WithContext("pkg", "staker")

// Bus is the cross-chain transport collaborator. Send is synchronous and
// non-blocking; VerifyAndFetch returns a payload whose authenticity and
// origin were already proven by the transport layer.
type Bus interface {
	Send(payload []byte) (tele.Bytes32, error)
	VerifyAndFetch(index uint64) (*warp.Message, error)
}

// RewardCalculator computes the reward settled when a validation period ends.
type RewardCalculator interface {
	CalculateReward(nodeID tele.Bytes32, weight, startedAt, endedAt uint64) *big.Int
}

// NoRewards is a RewardCalculator that never pays out.
type NoRewards struct{}

func (NoRewards) CalculateReward(tele.Bytes32, uint64, uint64, uint64) *big.Int {
	return new(big.Int)
}

var slotBootstrap = tele.BytesToBytes32([]byte("bootstrap"))

// bootstrapProgress accumulates the stake provided before the gate closes.
type bootstrapProgress struct {
	Provided *big.Int
}

func (b *bootstrapProgress) provided() *big.Int {
	if b.Provided == nil {
		return new(big.Int)
	}
	return b.Provided
}

// Staker is the staking manager. A single mutex serializes every entry
// point; each mutating call commits all of its state changes or none.
type Staker struct {
	mu  sync.Mutex
	cfg *Config

	state       *state.State
	churn       *churn.Tracker
	validations *validation.Service
	bootstrap   *state.Value[bootstrapProgress]

	bus     Bus
	rewards RewardCalculator
	feed    *eventFeed
}

// New creates a manager over the given state.
// A nil rewards collaborator disables payouts.
func New(cfg *Config, st *state.State, bus Bus, rewards RewardCalculator) (*Staker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config")
	}
	if rewards == nil {
		rewards = NoRewards{}
	}
	return &Staker{
		cfg:         cfg,
		state:       st,
		churn:       churn.New(st, cfg.MaximumHourlyChurn),
		validations: validation.New(st),
		bootstrap:   state.NewValue[bootstrapProgress](st, slotBootstrap),
		bus:         bus,
		rewards:     rewards,
		feed:        newEventFeed(),
	}, nil
}

// SubscribeEvents delivers lifecycle events to ch until the returned cancel
// func is called. Events are published only after their call has committed.
func (s *Staker) SubscribeEvents(ch chan Event) func() {
	return s.feed.subscribe(ch)
}

// transact runs fn under the top-level lock. On error the state journal is
// reverted and the registry cache purged, so no partial mutation survives.
// On success the staged writes are committed in one batch and the collected
// events published.
func (s *Staker) transact(op string, fn func() ([]Event, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	checkpoint := s.state.Checkpoint()
	events, err := fn()
	if err != nil {
		s.state.RevertTo(checkpoint)
		s.validations.PurgeCache()
		countCall(op, err)
		return err
	}
	if err := s.state.Commit(); err != nil {
		s.validations.PurgeCache()
		countCall(op, err)
		return errors.Wrap(err, "commit")
	}
	countCall(op, nil)
	for _, ev := range events {
		s.feed.publish(ev)
	}
	return nil
}

//
// Getters - no state change
//

// Get returns the lifecycle record for id, an empty record if absent.
func (s *Staker) Get(id tele.Bytes32) (*validation.Validation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validations.Get(id)
}

// GetByNode returns the live validation bound to nodeID.
func (s *Staker) GetByNode(nodeID tele.Bytes32) (tele.Bytes32, *validation.Validation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, bound, err := s.validations.ActiveByNode(nodeID)
	if err != nil {
		return tele.Bytes32{}, nil, err
	}
	if !bound {
		return tele.Bytes32{}, nil, errors.WithMessagef(ErrUnknownValidation, "node %v", nodeID.AbbrevString())
	}
	entry, err := s.validations.GetExisting(id)
	if err != nil {
		return tele.Bytes32{}, nil, err
	}
	return id, entry, nil
}

// ChurnPeriod returns the current rolling-window accumulator.
func (s *Staker) ChurnPeriod() (*churn.Period, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.churn.Current()
}

// Withdrawable returns the released stake claimable by owner.
func (s *Staker) Withdrawable(owner tele.Address) (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validations.Withdrawable(owner)
}

// PendingMessage returns the stored outbound message for id, nil if none.
func (s *Staker) PendingMessage(id tele.Bytes32) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validations.Message(id)
}

// BootstrapRemaining returns the stake still to be provided before normal
// registration opens. Zero once the gate has closed.
func (s *Staker) BootstrapRemaining() (*big.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	progress, err := s.bootstrap.Get()
	if err != nil {
		return nil, err
	}
	remaining := new(big.Int).Sub(s.cfg.InitialStake, progress.provided())
	if remaining.Sign() < 0 {
		remaining.SetInt64(0)
	}
	return remaining, nil
}

//
// Setters - state change
//

// BootstrapValidator registers a genesis validator directly as active. No
// churn accounting and no outbound message: the remote authority already
// knows the genesis set. Once the provided total reaches the configured
// initial stake the gate closes and the churn window is initialized.
func (s *Staker) BootstrapValidator(
	owner tele.Address,
	nodeID tele.Bytes32,
	signature []byte,
	stake *big.Int,
	now uint64,
) (tele.Bytes32, error) {
	logger.Debug("bootstrapping validator", "node", nodeID, "owner", owner, "stake", stake)

	var id tele.Bytes32
	err := s.transact("bootstrap", func() ([]Event, error) {
		initialized, err := s.churn.Initialized()
		if err != nil {
			return nil, err
		}
		if initialized {
			return nil, ErrBootstrapComplete
		}
		if nodeID.IsZero() {
			return nil, ErrZeroNodeID
		}
		if stake == nil || stake.Sign() <= 0 || new(big.Int).Mod(stake, tele.WeightFactor).Sign() != 0 {
			return nil, errors.WithMessage(ErrStakeOutOfBounds, "bootstrap stake must be a positive multiple of the weight factor")
		}
		weight, err := tele.ValueToWeight(stake)
		if err != nil {
			return nil, errors.WithMessage(ErrStakeOutOfBounds, err.Error())
		}
		if weight < s.cfg.MinimumStakeWeight || weight > s.cfg.MaximumStakeWeight {
			return nil, errors.WithMessagef(ErrStakeOutOfBounds, "weight %d", weight)
		}

		progress, err := s.bootstrap.Get()
		if err != nil {
			return nil, err
		}
		provided := new(big.Int).Add(progress.provided(), stake)
		if provided.Cmp(s.cfg.InitialStake) > 0 {
			return nil, errors.WithMessage(ErrStakeOutOfBounds, "exceeds remaining initial stake")
		}

		info := &warp.ValidationInfo{
			SubnetID:           s.cfg.SubnetID,
			NodeID:             nodeID,
			Weight:             weight,
			RegistrationExpiry: now,
			Signature:          signature,
		}
		id, err = info.ID()
		if err != nil {
			return nil, err
		}
		entry := &validation.Validation{
			NodeID:             nodeID,
			Owner:              owner,
			Weight:             weight,
			RegistrationExpiry: now,
			Signature:          signature,
			Status:             validation.StatusActive,
			StartedAt:          now,
		}
		if err := s.validations.Add(id, entry); err != nil {
			return nil, err
		}
		if err := s.bootstrap.Set(bootstrapProgress{Provided: provided}); err != nil {
			return nil, err
		}
		metricActiveValidators().Add(1)

		events := []Event{{
			Type:         EventRegistered,
			ValidationID: id,
			NodeID:       nodeID,
			Owner:        owner,
			Weight:       weight,
			Timestamp:    now,
		}}
		if provided.Cmp(s.cfg.InitialStake) == 0 {
			initialWeight, err := tele.ValueToWeight(s.cfg.InitialStake)
			if err != nil {
				return nil, err
			}
			if err := s.churn.Initialize(initialWeight, now); err != nil {
				return nil, err
			}
			events = append(events, Event{Type: EventBootstrapped, Timestamp: now})
			logger.Info("bootstrap complete", "initialWeight", initialWeight)
		}
		return events, nil
	})
	if err != nil {
		logger.Info("bootstrap validator failed", "node", nodeID, "error", err)
		return tele.Bytes32{}, err
	}

	logger.Info("bootstrapped validator", "node", nodeID, "id", id)
	return id, nil
}

// InitializeValidatorRegistration admits a new validator, persists it as
// pending and hands the canonical registration message to the bus. The
// returned validation ID is the content hash of the encoded record.
func (s *Staker) InitializeValidatorRegistration(
	owner tele.Address,
	nodeID tele.Bytes32,
	signature []byte,
	stake *big.Int,
	expiry uint64,
	now uint64,
) (tele.Bytes32, error) {
	logger.Debug("registering validator", "node", nodeID, "owner", owner, "stake", stake, "expiry", expiry)

	var id tele.Bytes32
	err := s.transact("register", func() ([]Event, error) {
		initialized, err := s.churn.Initialized()
		if err != nil {
			return nil, err
		}
		if !initialized {
			return nil, ErrInitialStakeNotProvided
		}
		if nodeID.IsZero() {
			return nil, ErrZeroNodeID
		}
		if expiry <= now || now+tele.RegistrationHorizon <= expiry {
			return nil, errors.WithMessagef(ErrInvalidExpiry, "expiry %d now %d", expiry, now)
		}
		weight, err := tele.ValueToWeight(stake)
		if err != nil {
			return nil, errors.WithMessage(ErrStakeOutOfBounds, err.Error())
		}
		if weight < s.cfg.MinimumStakeWeight || weight > s.cfg.MaximumStakeWeight {
			return nil, errors.WithMessagef(ErrStakeOutOfBounds, "weight %d", weight)
		}
		if err := s.admitChurn(weight, now); err != nil {
			return nil, err
		}

		info := &warp.ValidationInfo{
			SubnetID:           s.cfg.SubnetID,
			NodeID:             nodeID,
			Weight:             weight,
			RegistrationExpiry: expiry,
			Signature:          signature,
		}
		var payload []byte
		id, payload, err = warp.Pack(warp.TypeRegisterSubnetValidator, info)
		if err != nil {
			return nil, err
		}

		entry := &validation.Validation{
			NodeID:             nodeID,
			Owner:              owner,
			Weight:             weight,
			RegistrationExpiry: expiry,
			Signature:          signature,
			Status:             validation.StatusPendingAdded,
		}
		if err := s.validations.Add(id, entry); err != nil {
			return nil, err
		}
		if err := s.validations.SetMessage(id, payload); err != nil {
			return nil, err
		}

		msgID, err := s.bus.Send(payload)
		if err != nil {
			return nil, errors.Wrap(err, "send registration")
		}
		metricPendingMessages().Add(1)

		return []Event{{
			Type:         EventRegistrationStarted,
			ValidationID: id,
			NodeID:       nodeID,
			Owner:        owner,
			Weight:       weight,
			MessageID:    msgID,
			Timestamp:    now,
		}}, nil
	})
	if err != nil {
		logger.Info("register validator failed", "node", nodeID, "error", err)
		return tele.Bytes32{}, err
	}

	logger.Info("registered validator", "node", nodeID, "id", id)
	return id, nil
}

// CompleteValidatorRegistration applies a registration acknowledgement
// fetched from the bus and activates the matching pending record.
// Rewards accrue from this point, not from creation.
func (s *Staker) CompleteValidatorRegistration(msgIndex, now uint64) (tele.Bytes32, error) {
	logger.Debug("completing registration", "msgIndex", msgIndex)

	var id tele.Bytes32
	err := s.transact("complete-register", func() ([]Event, error) {
		msg, err := s.bus.VerifyAndFetch(msgIndex)
		if err != nil {
			return nil, errors.Wrap(err, "fetch acknowledgement")
		}
		var info *warp.ValidationInfo
		id, info, err = warp.Unpack(warp.TypeSubnetValidatorRegistered, msg.Payload)
		if err != nil {
			return nil, err
		}

		entry, err := s.validations.GetExisting(id)
		if err != nil {
			return nil, err
		}
		if entry.Status != validation.StatusPendingAdded {
			return nil, errors.WithMessagef(ErrUnknownValidation, "id %v not pending", id.AbbrevString())
		}

		entry.Status = validation.StatusActive
		entry.StartedAt = now
		if err := s.validations.Update(id, entry); err != nil {
			return nil, err
		}
		s.validations.ClearMessage(id)
		metricPendingMessages().Add(-1)
		metricActiveValidators().Add(1)

		return []Event{{
			Type:         EventRegistered,
			ValidationID: id,
			NodeID:       info.NodeID,
			Owner:        entry.Owner,
			Weight:       entry.Weight,
			Timestamp:    now,
		}}, nil
	})
	if err != nil {
		logger.Info("complete registration failed", "msgIndex", msgIndex, "error", err)
		return tele.Bytes32{}, err
	}

	logger.Info("validator active", "id", id)
	return id, nil
}

// InitializeEndValidation starts removing an active validator owned by the
// caller. Rewards stop accruing; the stake stays locked until the authority
// acknowledges. The removal itself counts against the churn window.
func (s *Staker) InitializeEndValidation(owner tele.Address, id tele.Bytes32, now uint64) error {
	logger.Debug("ending validation", "id", id, "owner", owner)

	err := s.transact("end", func() ([]Event, error) {
		entry, err := s.validations.GetExisting(id)
		if err != nil {
			return nil, err
		}
		if entry.Status != validation.StatusActive {
			return nil, errors.WithMessagef(ErrUnknownValidation, "id %v not active", id.AbbrevString())
		}
		if entry.Owner != owner {
			return nil, ErrNotOwner
		}
		if err := s.admitChurn(entry.Weight, now); err != nil {
			return nil, err
		}

		entry.Status = validation.StatusPendingRemoved
		entry.EndedAt = now
		if err := s.validations.Update(id, entry); err != nil {
			return nil, err
		}

		// The removal request echoes the original record, so the embedded
		// content hash still equals the validation ID.
		packedID, payload, err := warp.Pack(warp.TypeSetSubnetValidatorWeight, entry.Info(s.cfg.SubnetID))
		if err != nil {
			return nil, err
		}
		if packedID != id {
			return nil, errors.New("record encoding no longer matches its id")
		}
		if err := s.validations.SetMessage(id, payload); err != nil {
			return nil, err
		}
		msgID, err := s.bus.Send(payload)
		if err != nil {
			return nil, errors.Wrap(err, "send removal")
		}
		metricActiveValidators().Add(-1)

		return []Event{{
			Type:         EventRemovalStarted,
			ValidationID: id,
			NodeID:       entry.NodeID,
			Owner:        owner,
			Weight:       entry.Weight,
			MessageID:    msgID,
			Timestamp:    now,
		}}, nil
	})
	if err != nil {
		logger.Info("end validation failed", "id", id, "error", err)
		return err
	}

	logger.Info("validation ending", "id", id)
	return nil
}

// CompleteEndValidation finishes a validation period from an inbound
// acknowledgement and releases the stake to the owner's withdrawable
// balance. Accepted payloads: tag 4 or tag 5 echoing the original record,
// or a tag 2 acknowledgement with weight zero, correlated through the
// nodeID index. A still-pending registration completes only on tag 5 or
// after its expiry has passed.
func (s *Staker) CompleteEndValidation(msgIndex, now uint64) (tele.Bytes32, error) {
	logger.Debug("completing end of validation", "msgIndex", msgIndex)

	var id tele.Bytes32
	err := s.transact("complete-end", func() ([]Event, error) {
		msg, err := s.bus.VerifyAndFetch(msgIndex)
		if err != nil {
			return nil, errors.Wrap(err, "fetch acknowledgement")
		}
		tag, err := warp.PeekType(msg.Payload)
		if err != nil {
			return nil, err
		}

		var entry *validation.Validation
		switch tag {
		case warp.TypeSubnetValidatorWeightSet, warp.TypeValidationPeriodInvalidated:
			id, _, err = warp.Unpack(tag, msg.Payload)
			if err != nil {
				return nil, err
			}
			entry, err = s.validations.GetExisting(id)
			if err != nil {
				return nil, err
			}

		case warp.TypeSubnetValidatorRegistered:
			// A registration ack with weight zero is how the authority
			// reports a removal. Zeroing the weight changes the content
			// hash, so the record is found through the nodeID index and
			// every other field must match.
			var info *warp.ValidationInfo
			_, info, err = warp.Unpack(tag, msg.Payload)
			if err != nil {
				return nil, err
			}
			if info.Weight != 0 {
				return nil, errors.WithMessage(warp.ErrTypeMismatch, "registration ack with nonzero weight")
			}
			var bound bool
			id, bound, err = s.validations.ActiveByNode(info.NodeID)
			if err != nil {
				return nil, err
			}
			if !bound {
				return nil, errors.WithMessagef(ErrUnknownValidation, "node %v", info.NodeID.AbbrevString())
			}
			entry, err = s.validations.GetExisting(id)
			if err != nil {
				return nil, err
			}
			if info.SubnetID != s.cfg.SubnetID ||
				entry.RegistrationExpiry != info.RegistrationExpiry ||
				!bytes.Equal(entry.Signature, info.Signature) {
				return nil, errors.WithMessagef(ErrUnknownValidation, "node %v record mismatch", info.NodeID.AbbrevString())
			}

		default:
			return nil, errors.WithMessagef(warp.ErrTypeMismatch, "tag %v", tag)
		}

		switch entry.Status {
		case validation.StatusPendingRemoved:
			// always valid
		case validation.StatusPendingAdded:
			if tag != warp.TypeValidationPeriodInvalidated && now <= entry.RegistrationExpiry {
				return nil, errors.WithMessagef(ErrUnknownValidation, "id %v registration still pending", id.AbbrevString())
			}
		default:
			return nil, errors.WithMessagef(ErrUnknownValidation, "id %v wrong state", id.AbbrevString())
		}

		if entry.EndedAt == 0 {
			entry.EndedAt = now
		}

		// Release the locked stake.
		if err := s.validations.CreditWithdrawable(entry.Owner, tele.WeightToValue(entry.Weight)); err != nil {
			return nil, err
		}
		// Settle rewards for periods that actually ran.
		if !entry.Rewarded && entry.StartedAt != 0 {
			reward := s.rewards.CalculateReward(entry.NodeID, entry.Weight, entry.StartedAt, entry.EndedAt)
			if reward != nil && reward.Sign() > 0 {
				if err := s.validations.CreditWithdrawable(entry.Owner, reward); err != nil {
					return nil, err
				}
			}
			entry.Rewarded = true
		}

		if err := s.validations.Complete(id, entry); err != nil {
			return nil, err
		}
		metricPendingMessages().Add(-1)

		return []Event{{
			Type:         EventCompleted,
			ValidationID: id,
			NodeID:       entry.NodeID,
			Owner:        entry.Owner,
			Weight:       entry.Weight,
			Timestamp:    now,
		}}, nil
	})
	if err != nil {
		logger.Info("complete end validation failed", "msgIndex", msgIndex, "error", err)
		return tele.Bytes32{}, err
	}

	logger.Info("validation completed", "id", id)
	return id, nil
}

// ResendRegisterValidatorMessage re-sends the stored pending message for id,
// whether it is the registration request or the removal request.
func (s *Staker) ResendRegisterValidatorMessage(id tele.Bytes32) (tele.Bytes32, error) {
	logger.Debug("resending message", "id", id)

	var msgID tele.Bytes32
	err := s.transact("resend", func() ([]Event, error) {
		payload, err := s.validations.Message(id)
		if err != nil {
			return nil, err
		}
		if len(payload) == 0 {
			return nil, errors.WithMessagef(ErrNoPendingMessage, "id %v", id.AbbrevString())
		}
		msgID, err = s.bus.Send(payload)
		if err != nil {
			return nil, errors.Wrap(err, "send")
		}
		return nil, nil
	})
	if err != nil {
		logger.Info("resend failed", "id", id, "error", err)
		return tele.Bytes32{}, err
	}
	return msgID, nil
}

// Withdraw pops the owner's released-stake balance.
func (s *Staker) Withdraw(owner tele.Address) (*big.Int, error) {
	logger.Debug("withdrawing", "owner", owner)

	var amount *big.Int
	err := s.transact("withdraw", func() ([]Event, error) {
		var err error
		amount, err = s.validations.Withdraw(owner)
		return nil, err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("withdrawn", "owner", owner, "amount", amount)
	return amount, nil
}

func (s *Staker) admitChurn(weight, now uint64) error {
	if err := s.churn.Admit(weight, now); err != nil {
		if errors.Is(err, churn.ErrLimitExceeded) {
			metricChurnRejections().Add(1)
		}
		return err
	}
	return nil
}
