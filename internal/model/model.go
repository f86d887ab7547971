package model

import (
	"github.com/greenside-labs/irrigator/internal/model/entities"
	"github.com/greenside-labs/irrigator/internal/model/messages"
)

// Aliases exposing the common types to the services.

type (
	Document         = entities.Document
	Zone             = entities.Zone
	ZoneEntry        = entities.ZoneEntry
	Schedule         = entities.Schedule
	StartTime        = entities.StartTime
	Settings         = entities.Settings
	Controls         = entities.Controls
	WxConfig         = entities.WxConfig
	WeatherStatus    = entities.WeatherStatus
	StateChangeEvent = messages.StateChangeEvent
	RunResultEvent   = messages.RunResultEvent
)

const (
	StateOn  = messages.StateOn
	StateOff = messages.StateOff
)
