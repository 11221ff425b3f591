package models

import "time"

// CoinsPerUnit is the fixed exchange rate between coins and currency units.
const CoinsPerUnit = 20

type Withdrawal struct {
	ID               int64     `json:"id"`
	WorkerEmail      string    `json:"worker_email"`
	WorkerName       string    `json:"worker_name"`
	WithdrawalCoin   int64     `json:"withdrawal_coin"`
	WithdrawalAmount int64     `json:"withdrawal_amount"`
	PaymentSystem    string    `json:"payment_system"`
	AccountNumber    string    `json:"account_number"`
	WithdrawDate     time.Time `json:"withdraw_date"`
}
