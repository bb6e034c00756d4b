// Package actions names the callback payloads shared by menus and scenes.
package actions

import (
	"strconv"

	"github.com/m3rciful/utilbot/core/telegram/callbacks"
)

// RootMenu is the menu every chat starts from.
const RootMenu = "utilities-menu"

// Scene names. Each is also the payload prefix that enters the scene:
// create-account-<address id>, delete-reading-<reading id> and so on.
const (
	CreateAddress = "create-address"
	CreateAccount = "create-account"
	CreateReading = "create-reading"
	CreateTariff  = "create-tariff"
	CalculateBill = "calculate-bill"
	DeleteAddress = "delete-address"
	DeleteAccount = "delete-account"
	DeleteReading = "delete-reading"
	DeleteTariff  = "delete-tariff"
)

// Payloads used inside scenes.
const (
	Resource = "resource"
	Meter    = "meter"
	AddMore  = "add-more"
)

// Dynamic menu kinds, see callbacks.ParseMenuID.
const (
	KindAddress  = "address"
	KindAccount  = "account"
	KindReadings = "readings"
	KindReading  = "reading"
	KindTariffs  = "tariffs"
	KindTariff   = "tariff"
)

func AddressMenu(id string) string { return callbacks.Join(KindAddress, id) }
func AccountMenu(id string) string { return callbacks.Join(KindAccount, id) }
func ReadingsMenu(id string) string { return callbacks.Join(KindReadings, id) }
func ReadingMenu(id string) string { return callbacks.Join(KindReading, id) }
func TariffsMenu(id string) string { return callbacks.Join(KindTariffs, id) }
func TariffMenu(id string) string { return callbacks.Join(KindTariff, id) }

// ReadingsYear is the readings menu paged to year.
func ReadingsYear(accountID string, year int) string {
	return callbacks.Join(KindReadings, accountID, strconv.Itoa(year))
}

// Enter builds the payload that starts scene for id.
func Enter(scene, id string) string {
	return callbacks.Join(scene, id)
}
