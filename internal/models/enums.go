package models

import (
	"encoding/json"
	"fmt"
)

// SharingLevel controls how much derived detail a tenant contributes to the
// network for a given fraud event.
type SharingLevel string

const (
	SharingLevelPrivate      SharingLevel = "private"
	SharingLevelAggregate    SharingLevel = "aggregate"
	SharingLevelNetworkMatch SharingLevel = "network_match"
)

// Valid reports whether the sharing level is a known value
func (l SharingLevel) Valid() bool {
	switch l {
	case SharingLevelPrivate, SharingLevelAggregate, SharingLevelNetworkMatch:
		return true
	}
	return false
}

// Rank orders sharing levels from most private to most open
func (l SharingLevel) Rank() int {
	switch l {
	case SharingLevelAggregate:
		return 1
	case SharingLevelNetworkMatch:
		return 2
	default:
		return 0
	}
}

// UnmarshalJSON rejects unknown sharing levels at the wire boundary
func (l *SharingLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v := SharingLevel(s)
	if !v.Valid() {
		return fmt.Errorf("invalid sharing level: %q", s)
	}
	*l = v
	return nil
}

// FraudType classifies the kind of check fraud observed
type FraudType string

const (
	FraudTypeCounterfeit          FraudType = "counterfeit"
	FraudTypeForgedSignature      FraudType = "forged_signature"
	FraudTypeForgedEndorsement    FraudType = "forged_endorsement"
	FraudTypeAlteredPayee         FraudType = "altered_payee"
	FraudTypeAlteredAmount        FraudType = "altered_amount"
	FraudTypeStolenCheck          FraudType = "stolen_check"
	FraudTypeDuplicatePresentment FraudType = "duplicate_presentment"
	FraudTypeKiting               FraudType = "kiting"
	FraudTypeAccountTakeover      FraudType = "account_takeover"
	FraudTypeOther                FraudType = "other"
)

// Valid reports whether the fraud type is a known value
func (t FraudType) Valid() bool {
	switch t {
	case FraudTypeCounterfeit, FraudTypeForgedSignature, FraudTypeForgedEndorsement,
		FraudTypeAlteredPayee, FraudTypeAlteredAmount, FraudTypeStolenCheck,
		FraudTypeDuplicatePresentment, FraudTypeKiting, FraudTypeAccountTakeover,
		FraudTypeOther:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown fraud types at the wire boundary
func (t *FraudType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v := FraudType(s)
	if !v.Valid() {
		return fmt.Errorf("invalid fraud type: %q", s)
	}
	*t = v
	return nil
}

// FraudChannel is the presentment channel the fraudulent item came through
type FraudChannel string

const (
	FraudChannelTeller        FraudChannel = "teller"
	FraudChannelATM           FraudChannel = "atm"
	FraudChannelMobileDeposit FraudChannel = "mobile_deposit"
	FraudChannelRemoteDeposit FraudChannel = "remote_deposit"
	FraudChannelLockbox       FraudChannel = "lockbox"
	FraudChannelACH           FraudChannel = "ach_conversion"
	FraudChannelOther         FraudChannel = "other"
)

// Valid reports whether the channel is a known value
func (c FraudChannel) Valid() bool {
	switch c {
	case FraudChannelTeller, FraudChannelATM, FraudChannelMobileDeposit,
		FraudChannelRemoteDeposit, FraudChannelLockbox, FraudChannelACH,
		FraudChannelOther:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown channels at the wire boundary
func (c *FraudChannel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v := FraudChannel(s)
	if !v.Valid() {
		return fmt.Errorf("invalid fraud channel: %q", s)
	}
	*c = v
	return nil
}

// ConfidenceLevel is the reporting tenant's confidence that the event was fraud
type ConfidenceLevel string

const (
	ConfidenceConfirmed ConfidenceLevel = "confirmed"
	ConfidenceProbable  ConfidenceLevel = "probable"
	ConfidenceSuspected ConfidenceLevel = "suspected"
)

// Valid reports whether the confidence level is a known value
func (c ConfidenceLevel) Valid() bool {
	switch c {
	case ConfidenceConfirmed, ConfidenceProbable, ConfidenceSuspected:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown confidence levels at the wire boundary
func (c *ConfidenceLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v := ConfidenceLevel(s)
	if !v.Valid() {
		return fmt.Errorf("invalid confidence level: %q", s)
	}
	*c = v
	return nil
}

// EventStatus is the lifecycle state of a fraud event
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusSubmitted EventStatus = "submitted"
	EventStatusWithdrawn EventStatus = "withdrawn"
)

// Valid reports whether the status is a known value
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusDraft, EventStatusSubmitted, EventStatusWithdrawn:
		return true
	}
	return false
}

// AlertSeverity classifies a network match alert
type AlertSeverity string

const (
	AlertSeverityLow    AlertSeverity = "low"
	AlertSeverityMedium AlertSeverity = "medium"
	AlertSeverityHigh   AlertSeverity = "high"
)

// Valid reports whether the severity is a known value
func (s AlertSeverity) Valid() bool {
	switch s {
	case AlertSeverityLow, AlertSeverityMedium, AlertSeverityHigh:
		return true
	}
	return false
}

// Rank orders severities so tenant minimums can be compared
func (s AlertSeverity) Rank() int {
	switch s {
	case AlertSeverityLow:
		return 1
	case AlertSeverityMedium:
		return 2
	case AlertSeverityHigh:
		return 3
	}
	return 0
}

// UnmarshalJSON rejects unknown severities at the wire boundary
func (s *AlertSeverity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	v := AlertSeverity(str)
	if !v.Valid() {
		return fmt.Errorf("invalid alert severity: %q", str)
	}
	*s = v
	return nil
}

// AmountBucket is the coarse amount band stored in place of exact amounts
type AmountBucket string

const (
	AmountBucketUnder500 AmountBucket = "under_500"
	AmountBucket500To1K  AmountBucket = "500_to_1000"
	AmountBucket1KTo5K   AmountBucket = "1000_to_5000"
	AmountBucket5KTo10K  AmountBucket = "5000_to_10000"
	AmountBucket10KTo50K AmountBucket = "10000_to_50000"
	AmountBucket50KPlus  AmountBucket = "50000_plus"
)

// AmountBucketFor maps an exact amount into its band
func AmountBucketFor(amount float64) AmountBucket {
	switch {
	case amount < 500:
		return AmountBucketUnder500
	case amount < 1000:
		return AmountBucket500To1K
	case amount < 5000:
		return AmountBucket1KTo5K
	case amount < 10000:
		return AmountBucket5KTo10K
	case amount < 50000:
		return AmountBucket10KTo50K
	default:
		return AmountBucket50KPlus
	}
}

// Valid reports whether the amount bucket is a known value
func (b AmountBucket) Valid() bool {
	switch b {
	case AmountBucketUnder500, AmountBucket500To1K, AmountBucket1KTo5K,
		AmountBucket5KTo10K, AmountBucket10KTo50K, AmountBucket50KPlus:
		return true
	}
	return false
}

// TrendDimension selects the grouping dimension for network trend queries
type TrendDimension string

const (
	TrendDimensionFraudType    TrendDimension = "fraud_type"
	TrendDimensionChannel      TrendDimension = "channel"
	TrendDimensionAmountBucket TrendDimension = "amount_bucket"
)

// Valid reports whether the dimension is a known value
func (d TrendDimension) Valid() bool {
	switch d {
	case TrendDimensionFraudType, TrendDimensionChannel, TrendDimensionAmountBucket:
		return true
	}
	return false
}

// Column returns the artifact column backing the dimension
func (d TrendDimension) Column() string {
	switch d {
	case TrendDimensionFraudType:
		return "fraud_type"
	case TrendDimensionChannel:
		return "channel"
	case TrendDimensionAmountBucket:
		return "amount_bucket"
	}
	return ""
}
