package bot

// DefaultTickWindowSize - емкость тикового окна графика
const DefaultTickWindowSize = 200

// TickWindow - ограниченное окно последних спредов для графика
//
// Три параллельные последовательности (open/close/real), FIFO-вытеснение
// старейшего элемента при переполнении. Мутируется ТОЛЬКО владеющим
// торговым циклом - по инварианту у ключа ровно один цикл, поэтому
// синхронизация не нужна. Для решений не используется
type TickWindow struct {
	capacity int
	open     []float64
	close    []float64
	real     []float64
}

// NewTickWindow создает окно заданной емкости
func NewTickWindow(capacity int) *TickWindow {
	if capacity <= 0 {
		capacity = DefaultTickWindowSize
	}
	return &TickWindow{
		capacity: capacity,
		open:     make([]float64, 0, capacity),
		close:    make([]float64, 0, capacity),
		real:     make([]float64, 0, capacity),
	}
}

// Append добавляет по одному значению в каждую последовательность,
// вытесняя старейшие при превышении емкости
func (w *TickWindow) Append(open, close, real float64) {
	w.open = push(w.open, open, w.capacity)
	w.close = push(w.close, close, w.capacity)
	w.real = push(w.real, real, w.capacity)
}

// Len возвращает текущую длину последовательностей
func (w *TickWindow) Len() int {
	return len(w.open)
}

// Snapshot возвращает полные копии всех трех последовательностей.
// Частичных чтений нет - график всегда получает согласованное окно
func (w *TickWindow) Snapshot() (open, close, real []float64) {
	open = make([]float64, len(w.open))
	close = make([]float64, len(w.close))
	real = make([]float64, len(w.real))
	copy(open, w.open)
	copy(close, w.close)
	copy(real, w.real)
	return open, close, real
}

// push добавляет элемент со сдвигом при переполнении
func push(seq []float64, v float64, capacity int) []float64 {
	if len(seq) >= capacity {
		copy(seq, seq[1:])
		seq[len(seq)-1] = v
		return seq
	}
	return append(seq, v)
}
