package wayland

import (
	"fmt"

	"github.com/pkg/errors"
)

const displayID uint32 = 1

// Interfaces this client binds and the versions it asks for
const (
	InterfaceSeat         = "wl_seat"
	InterfaceIdleNotifier = "ext_idle_notifier_v1"

	seatVersion         = 1
	idleNotifierVersion = 1
)

// wl_display
const (
	displayRequestGetRegistry uint16 = 1

	displayEventError    uint16 = 0
	displayEventDeleteID uint16 = 1
)

// wl_registry
const (
	registryRequestBind uint16 = 0

	registryEventGlobal       uint16 = 0
	registryEventGlobalRemove uint16 = 1
)

// wl_seat
const (
	seatEventCapabilities uint16 = 0
	seatEventName         uint16 = 1
)

// ext_idle_notifier_v1
const (
	notifierRequestGetIdleNotification uint16 = 1
)

// ext_idle_notification_v1
const (
	notificationEventIdled   uint16 = 0
	notificationEventResumed uint16 = 1
)

// DisplayEvent is an event on wl_display
type DisplayEvent interface{ isDisplayEvent() }

// RegistryEvent is an event on wl_registry
type RegistryEvent interface{ isRegistryEvent() }

// SeatEvent is an event on wl_seat
type SeatEvent interface{ isSeatEvent() }

// NotifierEvent is an event on ext_idle_notifier_v1, which defines none
type NotifierEvent interface{ isNotifierEvent() }

// NotificationEvent is an event on ext_idle_notification_v1
type NotificationEvent interface{ isNotificationEvent() }

// DisplayError is a fatal protocol error reported by the compositor
type DisplayError struct {
	ObjectID uint32
	Code     uint32
	Message  string
}

func (e DisplayError) Error() string {
	return fmt.Sprintf("wayland protocol error on object %d (code %d): %s", e.ObjectID, e.Code, e.Message)
}

// DisplayDeleteID acknowledges that the compositor released an object id
type DisplayDeleteID struct {
	ID uint32
}

// RegistryGlobal advertises a global capability
type RegistryGlobal struct {
	Name      uint32
	Interface string
	Version   uint32
}

// RegistryGlobalRemove withdraws a previously advertised global
type RegistryGlobalRemove struct {
	Name uint32
}

// SeatCapabilities lists the input devices of a seat
type SeatCapabilities struct {
	Capabilities uint32
}

// SeatName carries the seat's name (version 2 and later)
type SeatName struct {
	Name string
}

// NotificationIdled reports that the seat went idle
type NotificationIdled struct{}

// NotificationResumed reports that the seat is active again
type NotificationResumed struct{}

// UnknownEvent is any opcode this client does not understand. Newer protocol
// versions may add events, so it is never an error.
type UnknownEvent struct {
	Opcode uint16
}

func (DisplayError) isDisplayEvent()    {}
func (DisplayDeleteID) isDisplayEvent() {}

func (RegistryGlobal) isRegistryEvent()       {}
func (RegistryGlobalRemove) isRegistryEvent() {}

func (SeatCapabilities) isSeatEvent() {}
func (SeatName) isSeatEvent()         {}

func (NotificationIdled) isNotificationEvent()   {}
func (NotificationResumed) isNotificationEvent() {}

func (UnknownEvent) isDisplayEvent()      {}
func (UnknownEvent) isRegistryEvent()     {}
func (UnknownEvent) isSeatEvent()         {}
func (UnknownEvent) isNotifierEvent()     {}
func (UnknownEvent) isNotificationEvent() {}

func decodeDisplayEvent(opcode uint16, body []byte) (DisplayEvent, error) {
	r := newArgReader(body)
	switch opcode {
	case displayEventError:
		objectID, err := r.Uint()
		if err != nil {
			return nil, errors.Wrap(err, "wl_display.error object_id")
		}
		code, err := r.Uint()
		if err != nil {
			return nil, errors.Wrap(err, "wl_display.error code")
		}
		msg, err := r.String()
		if err != nil {
			return nil, errors.Wrap(err, "wl_display.error message")
		}
		return DisplayError{ObjectID: objectID, Code: code, Message: msg}, nil
	case displayEventDeleteID:
		id, err := r.Uint()
		if err != nil {
			return nil, errors.Wrap(err, "wl_display.delete_id id")
		}
		return DisplayDeleteID{ID: id}, nil
	default:
		return UnknownEvent{Opcode: opcode}, nil
	}
}

func decodeRegistryEvent(opcode uint16, body []byte) (RegistryEvent, error) {
	r := newArgReader(body)
	switch opcode {
	case registryEventGlobal:
		name, err := r.Uint()
		if err != nil {
			return nil, errors.Wrap(err, "wl_registry.global name")
		}
		iface, err := r.String()
		if err != nil {
			return nil, errors.Wrap(err, "wl_registry.global interface")
		}
		version, err := r.Uint()
		if err != nil {
			return nil, errors.Wrap(err, "wl_registry.global version")
		}
		return RegistryGlobal{Name: name, Interface: iface, Version: version}, nil
	case registryEventGlobalRemove:
		name, err := r.Uint()
		if err != nil {
			return nil, errors.Wrap(err, "wl_registry.global_remove name")
		}
		return RegistryGlobalRemove{Name: name}, nil
	default:
		return UnknownEvent{Opcode: opcode}, nil
	}
}

func decodeSeatEvent(opcode uint16, body []byte) (SeatEvent, error) {
	r := newArgReader(body)
	switch opcode {
	case seatEventCapabilities:
		caps, err := r.Uint()
		if err != nil {
			return nil, errors.Wrap(err, "wl_seat.capabilities")
		}
		return SeatCapabilities{Capabilities: caps}, nil
	case seatEventName:
		name, err := r.String()
		if err != nil {
			return nil, errors.Wrap(err, "wl_seat.name")
		}
		return SeatName{Name: name}, nil
	default:
		return UnknownEvent{Opcode: opcode}, nil
	}
}

func decodeNotifierEvent(opcode uint16, _ []byte) (NotifierEvent, error) {
	return UnknownEvent{Opcode: opcode}, nil
}

func decodeNotificationEvent(opcode uint16, _ []byte) (NotificationEvent, error) {
	switch opcode {
	case notificationEventIdled:
		return NotificationIdled{}, nil
	case notificationEventResumed:
		return NotificationResumed{}, nil
	default:
		return UnknownEvent{Opcode: opcode}, nil
	}
}
