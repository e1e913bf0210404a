package logjoin

// deadlineIndex maps uid to the flush deadline in micros since epoch.
// Touch only ever advances a deadline; Evict removes entries as it visits
// them, which Go map iteration permits.
type deadlineIndex struct {
	m map[string]int64
}

func newDeadlineIndex() *deadlineIndex {
	return &deadlineIndex{m: make(map[string]int64)}
}

// Touch sets the uid's deadline to max(existing, deadline).
func (d *deadlineIndex) Touch(uid string, deadline int64) {
	if old, ok := d.m[uid]; ok && old >= deadline {
		return
	}
	d.m[uid] = deadline
}

// Evict calls fn for every uid whose deadline is strictly before
// streamTime and removes the entry. A failing fn stops the sweep with the
// entry still present, so a retried flush sees it again.
func (d *deadlineIndex) Evict(streamTime int64, fn func(uid string) error) error {
	for uid, deadline := range d.m {
		if deadline >= streamTime {
			continue
		}
		if err := fn(uid); err != nil {
			return err
		}
		delete(d.m, uid)
	}
	return nil
}

func (d *deadlineIndex) Get(uid string) (int64, bool) {
	v, ok := d.m[uid]
	return v, ok
}

func (d *deadlineIndex) Len() int {
	return len(d.m)
}
