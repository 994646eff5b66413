package sched

// readyQueue is a min-heap over accumulated stride. Comparison uses the
// signed difference of the unsigned strides so ordering survives counter
// wraparound; ties are broken by task creation sequence to keep the order
// total and deterministic.
type readyQueue []*Task

func (q readyQueue) Len() int { return len(q) }

func (q readyQueue) Less(i, j int) bool {
	if d := int64(q[i].Stride - q[j].Stride); d != 0 {
		return d < 0
	}
	return q[i].seq < q[j].seq
}

func (q readyQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *readyQueue) Push(x interface{}) { *q = append(*q, x.(*Task)) }

func (q *readyQueue) Pop() interface{} {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return t
}
