package models

import "time"

const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

const (
	KindResident = "resident"
	KindVisitor  = "visitor"
)

const (
	RateHourly  = "hourly"
	RateDaily   = "daily"
	RateMonthly = "monthly"
)

const (
	// CancelReasonRelocated marks the old booking when a relocation is accepted.
	CancelReasonRelocated = "relocated"

	// CancelReasonCompensated marks the booking when the holder declines
	// relocation and receives a coupon instead.
	CancelReasonCompensated = "slot unavailable - compensated"

	// CancelReasonUser marks an explicit user cancellation.
	CancelReasonUser = "cancelled by user"
)

const (
	// DedupCooldown окно подавления повторных уведомлений
	DedupCooldown = 10 * time.Minute

	// FineRoundMinutes длительность одного раунда штрафа
	FineRoundMinutes = 15

	// CouponValidityMonths срок действия купона
	CouponValidityMonths = 1

	// MaxBookingsPerDay максимум активных заявок, созданных за день
	MaxBookingsPerDay = 5

	// MaxHourlyPerEntryDate максимум почасовых заявок на одну дату въезда
	MaxHourlyPerEntryDate = 5

	// MaxVisitorsPerResident максимум гостевых регистраций на резидента
	MaxVisitorsPerResident = 3

	// DefaultHoldTTL время жизни удержания слота между выбором и коммитом
	DefaultHoldTTL = 2 * 60 // 2 минуты в секундах

	// DefaultRedisTTL время жизни кэша инцидентов в Redis
	DefaultRedisTTL = 24 * 60 * 60 // 24 часа в секундах
)

// DiscountForRate maps a booking's rate type to the compensation coupon tier.
func DiscountForRate(rateType string) int {
	switch rateType {
	case RateHourly:
		return 10
	case RateDaily:
		return 20
	case RateMonthly:
		return 30
	default:
		return 0
	}
}
