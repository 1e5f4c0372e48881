package bot

import "autofutures/internal/models"

// ValidTransitions определяет допустимые переходы фаз позиции
//
// Flat → Opening → Open → Closing → Flat; half-open остается в Opening
// до вмешательства оператора, неудачное закрытие возвращает в Open
var ValidTransitions = map[string][]string{
	models.PhaseFlat:    {models.PhaseOpening},
	models.PhaseOpening: {models.PhaseOpen, models.PhaseFlat},
	models.PhaseOpen:    {models.PhaseClosing},
	models.PhaseClosing: {models.PhaseFlat, models.PhaseOpen}, // Open при откате неудачного закрытия
}

// CanTransition проверяет допустимость перехода
func CanTransition(from, to string) bool {
	allowed, ok := ValidTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Decision - решение state machine для одного тика
type Decision struct {
	OpenNew bool // условие входа выполнено, лимит позиций не исчерпан

	// Позиции к закрытию: по условию спреда либо принудительно (stop-флаги)
	Close      []*models.Position
	ForceClose bool // закрытие вызвано force_stop/total_stop, а не спредом
}

// Decide оценивает правила переходов для одного тика
//
// Входы и выходы по спреду оцениваются только при realMarket=true и
// снятых stop-флагах; stop-флаги принудительно закрывают все активные
// позиции независимо от спреда и качества данных (закрытие использует
// сохраненные объемы и не требует котировок).
//
// Half-open позиции никогда не закрываются автоматически - они требуют
// вмешательства оператора и пропускаются при любой оценке выхода
func Decide(
	settings *models.SymbolSettings,
	sample models.SpreadSample,
	realMarket bool,
	active []*models.Position,
) Decision {
	var d Decision

	// Принудительный выход: stop-флаги важнее любых условий
	if settings.ForceStop || settings.TotalStop {
		d.ForceClose = true
		for _, pos := range active {
			if pos.HalfOpen {
				continue
			}
			d.Close = append(d.Close, pos)
		}
		return d
	}

	if !realMarket {
		return d
	}

	// Вход: лимит одновременных позиций + порог спреда
	if len(active) < settings.MaxOrders && EntrySignal(settings.Side, sample.OpenSpread, settings.OpenSpread) {
		d.OpenNew = true
	}

	// Выход: оценивается независимо для каждой активной позиции
	for _, pos := range active {
		if pos.HalfOpen || pos.Phase != models.PhaseOpen {
			continue
		}
		if ExitSignal(settings.Side, sample.CloseSpread, settings.CloseSpread) {
			d.Close = append(d.Close, pos)
		}
	}

	return d
}

// EntrySignal проверяет условие входа
//
// Правило симметрично для LONG и SHORT: спред пересекает порог в
// направлении, выгодном выбранной стороне
func EntrySignal(side string, openSpread, threshold float64) bool {
	if side == models.SideShort {
		return openSpread <= -threshold
	}
	return openSpread >= threshold
}

// ExitSignal проверяет условие выхода (зеркально условию входа)
func ExitSignal(side string, closeSpread, threshold float64) bool {
	if side == models.SideShort {
		return closeSpread >= -threshold
	}
	return closeSpread <= threshold
}

// CountActive возвращает количество активных позиций
func CountActive(positions []*models.Position) int {
	n := 0
	for _, pos := range positions {
		if pos.IsActive() {
			n++
		}
	}
	return n
}
