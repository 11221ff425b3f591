package models

import "time"

const (
	RoleWorker = "Worker"
	RoleBuyer  = "Buyer"
)

// Signup bonus granted at registration, by role.
const (
	WorkerStartingCoins = 10
	BuyerStartingCoins  = 20
)

type User struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	ProfileImage string    `json:"profileImage"`
	Coins        int64     `json:"coins"`
	CreatedAt    time.Time `json:"createdAt"`
}

func StartingCoins(role string) int64 {
	if role == RoleWorker {
		return WorkerStartingCoins
	}
	return BuyerStartingCoins
}
