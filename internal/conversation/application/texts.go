package application

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	conversation "github.com/felixgeelhaar/reserva/internal/conversation/domain"
	"github.com/felixgeelhaar/reserva/internal/reservation/domain"
)

const (
	textWelcome         = "👋 Вас вітає Tennis bot. Ви можете забронювати стіл на бажаний час."
	textBookButton      = "Забронювати 🏓"
	textChooseDuration  = "⏳ Оберіть тривалість:"
	textChooseDate      = "📅 Оберіть дату (максимум 2 тижні у майбутньому):"
	textChooseTime      = "🕒 Оберіть час для %s:"
	textNoSlots         = "⛔ На вибрану дату немає доступних часових слотів."
	textContactPrompt   = "📞 Будь ласка, введіть ваші контактні дані (Наприклад: Андрій Шевченко, +380501234567, коментар):"
	textBack            = "⬅️ Назад"
	textCancelled       = "🚫 Процес бронювання скасовано."
	textNothingToCancel = "ℹ️ Немає активного бронювання."
	textStale           = "⚠️ Ця дія вже неактуальна. Натисніть /start, щоб почати знову."
	textRetry           = "⚠️ Не вдалося зберегти бронювання. Будь ласка, спробуйте ще раз."

	textInPast         = "⛔ Ви не можете забронювати на минулу дату або час."
	textOverlap        = "⛔ На цей час вже існує бронювання. Будь ласка, оберіть інший час."
	textEmptyContact   = "⚠️ Будь ласка, введіть ваші контактні дані."
	textOutsideHours   = "⛔ Обраний час виходить за межі робочих годин (09:00 - 23:00)."
	textInvalidBooking = "⛔ Неможливо забронювати обраний час. Будь ласка, оберіть інший."
)

const textInfo = "*УМОВИ та ПРАВИЛА*\n" +
	"• Орендар залу повинен бути старше *16 років*.\n" +
	"• Заборонено вживати алкогольні напої та перебувати у стані алкогольного або наркотичного спʼяніння.\n" +
	"• Використання змінного взуття _обов'язкове_.\n" +
	"• Орендар залу несе повну відповідальність за будь-які пошкодження, завдані ним або його опонентами.\n" +
	"• Заборонено виконувати сальто та інші небезпечні трюки в приміщенні. " +
	"За будь-які травми або ушкодження, отримані внаслідок недотримання правил, відповідальність несе особа, яка порушила ці правила.\n" +
	"• Поважайте час наступного гравця та завершуйте гру заздалегідь.\n" +
	"• Після гри покладіть інвентар на місце, вимкніть світло та зачиніть двері.\n\n" +
	"*ШТРАФИ*\n" +
	"• Роздавлений м'яч — *50 грн*.\n" +
	"• Пошкоджена або зламана ракетка — від *250 грн* до *1000 грн* (залежно від ступеня пошкодження).\n" +
	"• Якщо після вашого візиту приміщення потребує додаткового прибирання — *300 грн*.\n\n" +
	"_Натискаючи кнопку «ЗАБРОНЮВАТИ СТІЛ», ви погоджуєтесь із нашими правилами відвідування залу._"

var weekdaysUA = map[time.Weekday]string{
	time.Monday:    "Понеділок",
	time.Tuesday:   "Вівторок",
	time.Wednesday: "Середа",
	time.Thursday:  "Четвер",
	time.Friday:    "Пʼятниця",
	time.Saturday:  "Субота",
	time.Sunday:    "Неділя",
}

var hoursUA = map[int]string{
	60:  "1 година",
	90:  "1,5 години",
	120: "2 години",
	180: "3 години",
}

// FormatDateUA renders a date as "10.06, Понеділок".
func FormatDateUA(date time.Time) string {
	return date.Format("02.01") + ", " + weekdaysUA[date.Weekday()]
}

// DurationLabel renders a duration button, adding the hourly rate when it
// is below the one-hour price.
func DurationLabel(opt domain.DurationOption) string {
	hours, ok := hoursUA[opt.Minutes]
	if !ok {
		hours = fmt.Sprintf("%d хв", opt.Minutes)
	}
	label := fmt.Sprintf("%s - %d₴ ⏱️", hours, opt.Price)

	base := domain.DurationOptions()[0]
	if opt.PricePerHour() < base.PricePerHour() {
		label += fmt.Sprintf(" (%d ₴/година)", opt.PricePerHour())
	}
	return label
}

func backRow() []Button {
	return []Button{{Text: textBack, Data: conversation.BackAction().Data()}}
}

func rejectionText(err error) string {
	switch {
	case errors.Is(err, domain.ErrInPast):
		return textInPast
	case errors.Is(err, domain.ErrOverlapsExisting):
		return textOverlap
	case errors.Is(err, domain.ErrEmptyContact):
		return textEmptyContact
	case errors.Is(err, domain.ErrOutsideBusinessHours):
		return textOutsideHours
	default:
		return textInvalidBooking
	}
}

// confirmationText renders the booking summary shown after a commit.
func confirmationText(r *domain.Reservation, paymentCard, adminContact string) string {
	var b strings.Builder
	b.WriteString("🏓 <b>Бронь столу</b>\n\n")
	fmt.Fprintf(&b, "📅 <b>Дата:</b> %s (%s)\n", r.Date().Format("02.01"), weekdaysUA[r.Date().Weekday()])
	fmt.Fprintf(&b, "🕔 <b>Час:</b> %s - %s\n", r.Start(), r.End())
	fmt.Fprintf(&b, "💵 <b>До сплати:</b> %d грн\n", r.Duration().Price)
	if paymentCard != "" {
		fmt.Fprintf(&b, "💳 <b>Карта:</b> %s\n", html.EscapeString(paymentCard))
	}
	b.WriteString("\n⏳ <b>Чекаємо на оплату впродовж 15-ти хвилин</b>\n\n")
	b.WriteString("✅ Після оплати чекайте на підтвердження від адміністратора")
	if adminContact != "" {
		fmt.Fprintf(&b, " (%s)", html.EscapeString(adminContact))
	}
	return b.String()
}
