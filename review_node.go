package quillflow

// execReview handles user_edit_list and user_review nodes: pure
// pass-through. They mark points where an interactive caller pauses for
// human review; the headless engine forwards the input unchanged and emits
// a review_pause event so callers can hook in, without ever blocking.
func (e *Engine) execReview(rs *runState, node *Node) (any, error) {
	input, _ := rs.inputFor(node)
	e.emit(NewEvent(EventReviewPause, rs.run.ID).
		WithNode(node.ID, node.Kind).
		WithPayload("mode", string(node.Kind)))
	return input, nil
}
