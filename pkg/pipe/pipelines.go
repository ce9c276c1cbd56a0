package pipe

// OrDone forwards values from c until c is closed or done is closed.
func OrDone[T any](done <-chan struct{}, c <-chan T) <-chan T {
	stream := make(chan T)

	go func() {
		defer close(stream)

		for {
			select {
			case <-done:
				return
			case v, ok := <-c:
				if !ok {
					return
				}
				if !Send(done, stream, v) {
					return
				}
			}
		}
	}()

	return stream
}

// Send delivers v on out unless done is closed first. It reports whether v
// was delivered.
func Send[T any](done <-chan struct{}, out chan<- T, v T) bool {
	select {
	case out <- v:
		return true
	case <-done:
		return false
	}
}
