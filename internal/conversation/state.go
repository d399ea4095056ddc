// Package conversation реализует конечный автомат диалога записи
// и хранение контекста пользователя.
package conversation

// State состояние диалога.
type State string

const (
	StateStart               State = "START"
	StateWaitingName         State = "WAITING_NAME"
	StateWaitingPhone        State = "WAITING_PHONE"
	StateWaitingDoctorChoice State = "WAITING_DOCTOR_CHOICE"
	StateWaitingDate         State = "WAITING_DATE"
	StateWaitingTime         State = "WAITING_TIME"
	StateConfirmBooking      State = "CONFIRM_BOOKING"
	StateDone                State = "DONE"
	StateAdminMenu           State = "ADMIN_MENU"
	StateErrorFallback       State = "ERROR_FALLBACK"

	// Административные сценарии
	StateAdminAddSpecialistName           State = "ADMIN_ADD_SPECIALIST_NAME"
	StateAdminAddSpecialistSpecialization State = "ADMIN_ADD_SPECIALIST_SPECIALIZATION"
	StateAdminAddSpecialistPhone          State = "ADMIN_ADD_SPECIALIST_PHONE"
	StateAdminAddSpecialistEmail          State = "ADMIN_ADD_SPECIALIST_EMAIL"
	StateAdminAddSpecialistConfirm        State = "ADMIN_ADD_SPECIALIST_CONFIRM"
	StateAdminEditSpecialistSelect        State = "ADMIN_EDIT_SPECIALIST_SELECT"
	StateAdminEditSpecialistField         State = "ADMIN_EDIT_SPECIALIST_FIELD"
	StateAdminEditSpecialistValue         State = "ADMIN_EDIT_SPECIALIST_VALUE"
	StateAdminDeleteSpecialistSelect      State = "ADMIN_DELETE_SPECIALIST_SELECT"
	StateAdminDeleteSpecialistConfirm     State = "ADMIN_DELETE_SPECIALIST_CONFIRM"
	StateAdminSetDayOffSpecialist         State = "ADMIN_SET_DAY_OFF_SPECIALIST"
	StateAdminSetDayOffDate               State = "ADMIN_SET_DAY_OFF_DATE"
	StateAdminSetDayOffReason             State = "ADMIN_SET_DAY_OFF_REASON"
	StateAdminSetDayOffConfirm            State = "ADMIN_SET_DAY_OFF_CONFIRM"
)

// validTransitions статическая таблица допустимых переходов.
var validTransitions = map[State][]State{
	StateStart: {
		StateWaitingName,
		StateAdminMenu,
		StateErrorFallback,
	},
	StateWaitingName: {
		StateWaitingPhone,
		StateErrorFallback,
	},
	StateWaitingPhone: {
		StateWaitingDoctorChoice,
		StateErrorFallback,
	},
	StateWaitingDoctorChoice: {
		StateWaitingDate,
		StateErrorFallback,
	},
	StateWaitingDate: {
		StateWaitingTime,
		StateErrorFallback,
	},
	StateWaitingTime: {
		StateConfirmBooking,
		StateErrorFallback,
	},
	StateConfirmBooking: {
		StateDone,
		StateWaitingDate, // возврат для смены даты/времени
		StateErrorFallback,
	},
	StateDone: {
		StateStart,
		StateErrorFallback,
	},
	StateAdminMenu: {
		StateStart,
		StateAdminAddSpecialistName,
		StateAdminEditSpecialistSelect,
		StateAdminDeleteSpecialistSelect,
		StateAdminSetDayOffSpecialist,
		StateErrorFallback,
	},
	StateAdminAddSpecialistName: {
		StateAdminAddSpecialistSpecialization,
		StateAdminMenu,
		StateErrorFallback,
	},
	StateAdminAddSpecialistSpecialization: {
		StateAdminAddSpecialistPhone,
		StateAdminMenu,
		StateErrorFallback,
	},
	StateAdminAddSpecialistPhone: {
		StateAdminAddSpecialistEmail,
		StateAdminMenu,
		StateErrorFallback,
	},
	StateAdminAddSpecialistEmail: {
		StateAdminAddSpecialistConfirm,
		StateAdminMenu,
		StateErrorFallback,
	},
	StateAdminAddSpecialistConfirm: {
		StateAdminMenu,
		StateErrorFallback,
	},
	StateAdminEditSpecialistSelect: {
		StateAdminEditSpecialistField,
		StateAdminMenu,
		StateErrorFallback,
	},
	StateAdminEditSpecialistField: {
		StateAdminEditSpecialistValue,
		StateAdminMenu,
		StateErrorFallback,
	},
	StateAdminEditSpecialistValue: {
		StateAdminMenu,
		StateErrorFallback,
	},
	StateAdminDeleteSpecialistSelect: {
		StateAdminDeleteSpecialistConfirm,
		StateAdminMenu,
		StateErrorFallback,
	},
	StateAdminDeleteSpecialistConfirm: {
		StateAdminMenu,
		StateErrorFallback,
	},
	StateAdminSetDayOffSpecialist: {
		StateAdminSetDayOffDate,
		StateAdminMenu,
		StateErrorFallback,
	},
	StateAdminSetDayOffDate: {
		StateAdminSetDayOffReason,
		StateAdminMenu,
		StateErrorFallback,
	},
	StateAdminSetDayOffReason: {
		StateAdminSetDayOffConfirm,
		StateAdminMenu,
		StateErrorFallback,
	},
	StateAdminSetDayOffConfirm: {
		StateAdminMenu,
		StateErrorFallback,
	},
	StateErrorFallback: {
		StateStart,
		StateAdminMenu,
	},
}

// AllowedTransitions возвращает список допустимых состояний из state.
func AllowedTransitions(state State) []State {
	allowed := validTransitions[state]
	out := make([]State, len(allowed))
	copy(out, allowed)
	return out
}
