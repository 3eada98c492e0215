package service

import (
	"github.com/iliyamo/restaurant-booking/internal/database"
	"github.com/iliyamo/restaurant-booking/internal/repository"
)

var (
	_ TxRunner                = (*database.DB)(nil)
	_ UserStore               = (*repository.UserRepo)(nil)
	_ TokenStore              = (*repository.TokenRepo)(nil)
	_ RestaurantStore         = (*repository.RestaurantRepo)(nil)
	_ SlotStore               = (*repository.SlotRepo)(nil)
	_ BookingStore            = (*repository.BookingRepo)(nil)
	_ CustomerStore           = (*repository.CustomerRepo)(nil)
	_ CancellationReasonStore = (*repository.CancellationReasonRepo)(nil)
	_ ReviewStore             = (*repository.ReviewRepo)(nil)
)
