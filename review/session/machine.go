package session

import "ledgerly-backend/review/model"

// command is work the runtime performs after a transition: either a
// use-case call whose completion comes back as an event, or an action to
// emit. The machine returns commands instead of doing IO so every
// transition stays synchronous and testable.
type command interface {
	isCommand()
}

type emitAction struct {
	action Action
}

type fetchRecord struct {
	gen        uint64
	documentID string
	refresh    bool
}

type fetchContact struct {
	gen       uint64
	contactID string
}

type fetchPages struct {
	gen        uint64
	documentID string
	offset     int
	limit      int
}

type persistDraft struct {
	gen        uint64
	documentID string
	data       model.Editable
	version    int64
}

type bindContact struct {
	gen        uint64
	documentID string
	contactID  string
}

type clearContact struct {
	gen        uint64
	documentID string
}

type confirmDocument struct {
	gen        uint64
	documentID string
}

type rejectDocument struct {
	gen        uint64
	documentID string
	reason     RejectReason
}

type reprocessDocument struct {
	gen        uint64
	documentID string
}

func (emitAction) isCommand()        {}
func (fetchRecord) isCommand()       {}
func (fetchContact) isCommand()      {}
func (fetchPages) isCommand()        {}
func (persistDraft) isCommand()      {}
func (bindContact) isCommand()       {}
func (clearContact) isCommand()      {}
func (confirmDocument) isCommand()   {}
func (rejectDocument) isCommand()    {}
func (reprocessDocument) isCommand() {}

// event is a completed use-case call. Each event carries the generation
// its command was issued under; reads from an older generation are dropped
// wholesale, mutation completions still clear their in-flight flag but
// never apply stale data.
type event interface {
	isEvent()
}

type recordFetched struct {
	gen     uint64
	refresh bool
	record  model.Record
	err     error
}

type contactFetched struct {
	gen     uint64
	contact model.Contact
	err     error
}

type pagesFetched struct {
	gen    uint64
	offset int
	limit  int
	pages  []model.Page
	err    error
}

type draftPersisted struct {
	gen    uint64
	record model.Record
	err    error
}

type contactBound struct {
	gen    uint64
	record model.Record
	err    error
}

type contactCleared struct {
	gen    uint64
	record model.Record
	err    error
}

type confirmFinished struct {
	gen     uint64
	entryID string
	err     error
}

type rejectFinished struct {
	gen uint64
	err error
}

type reprocessFinished struct {
	gen uint64
	err error
}

func (recordFetched) isEvent()     {}
func (contactFetched) isEvent()    {}
func (pagesFetched) isEvent()      {}
func (draftPersisted) isEvent()    {}
func (contactBound) isEvent()      {}
func (contactCleared) isEvent()    {}
func (confirmFinished) isEvent()   {}
func (rejectFinished) isEvent()    {}
func (reprocessFinished) isEvent() {}

// machine is the pure core of a session. It is not safe for concurrent
// use; the Session runtime serializes all access through one goroutine.
// gen is the request generation: it advances whenever the flow restarts
// (initial load, retry after failure, reprocess) so responses raced by a
// restart can never overwrite newer state.
type machine struct {
	documentID string
	batchSize  int
	gen        uint64
	state      State
}

func newMachine(documentID string, batchSize int) *machine {
	if batchSize <= 0 {
		batchSize = DefaultPageBatchSize
	}
	return &machine{
		documentID: documentID,
		batchSize:  batchSize,
		state:      Loading{DocumentID: documentID},
	}
}

// start kicks off the initial record fetch.
func (m *machine) start() []command {
	m.gen++
	m.state = Loading{DocumentID: m.documentID}
	return []command{fetchRecord{gen: m.gen, documentID: m.documentID}}
}

func (m *machine) handleIntent(in Intent) []command {
	switch it := in.(type) {
	case LoadDocument:
		if it.DocumentID == "" {
			return nil
		}
		m.documentID = it.DocumentID
		return m.start()
	case Refresh:
		return m.refresh()
	case RequestBack:
		if c, ok := m.state.(Content); ok && c.HasUnsavedChanges() {
			return []command{emitAction{ConfirmDiscard{}}}
		}
		return []command{emitAction{NavigateBack{}}}
	case DiscardConfirmed:
		return []command{emitAction{NavigateBack{}}}
	}

	// Everything else operates on the content surface and is dropped in
	// any other state.
	c, ok := m.state.(Content)
	if !ok {
		return nil
	}

	switch it := in.(type) {
	case SetField:
		updated, err := c.Editable.Set(it.Field, it.Value)
		if err != nil {
			// Surfaces bind inputs to field kinds, so a mismatched set is
			// a wiring bug upstream, not a user error to toast about.
			return nil
		}
		c.Editable = updated
		m.state = c
		return nil

	case ChangeDocType:
		dt := model.ParseDocType(string(it.DocType))
		if dt == model.DocTypeUnknown || dt == c.Editable.DocType {
			return nil
		}
		c.Editable = model.EmptyFor(dt)
		m.state = c
		return nil

	case AddLineItem:
		c.Editable = c.Editable.AppendLineItem(it.Item)
		m.state = c
		return nil

	case UpdateLineItem:
		c.Editable = c.Editable.ReplaceLineItem(it.Index, it.Item)
		m.state = c
		return nil

	case RemoveLineItem:
		c.Editable = c.Editable.RemoveLineItem(it.Index)
		m.state = c
		return nil

	case BindContact:
		if it.ContactID == "" || c.Flags.BindingContact {
			return nil
		}
		c.Flags.BindingContact = true
		m.state = c
		return []command{bindContact{gen: m.gen, documentID: m.documentID, contactID: it.ContactID}}

	case ClearContact:
		if c.Flags.BindingContact {
			return nil
		}
		c.Flags.BindingContact = true
		m.state = c
		return []command{clearContact{gen: m.gen, documentID: m.documentID}}

	case LoadMorePages:
		if c.Preview.Loading || c.Preview.Exhausted {
			return nil
		}
		c.Preview.Loading = true
		c.Preview.Failed = false
		m.state = c
		return []command{fetchPages{gen: m.gen, documentID: m.documentID, offset: c.Preview.NextOffset, limit: m.batchSize}}

	case Save:
		if c.Flags.Saving || !c.HasUnsavedChanges() {
			return nil
		}
		c.Flags.Saving = true
		m.state = c
		return []command{persistDraft{gen: m.gen, documentID: m.documentID, data: c.Editable, version: draftVersion(c.Record)}}

	case Confirm:
		if c.Flags.Confirming {
			return nil
		}
		if verr := model.Validate(c.Editable, contactLinked(c.Contact)); verr != nil {
			return []command{emitAction{ShowError{Kind: ErrValidationFailed, Validation: verr}}}
		}
		c.Flags.Confirming = true
		m.state = c
		return []command{confirmDocument{gen: m.gen, documentID: m.documentID}}

	case OpenRejectDialog:
		if c.RejectDialog == nil {
			c.RejectDialog = &RejectDialog{}
			m.state = c
		}
		return nil

	case ChooseRejectReason:
		if c.RejectDialog == nil || !ValidRejectReason(it.Reason) {
			return nil
		}
		c.RejectDialog = &RejectDialog{Reason: it.Reason}
		m.state = c
		return nil

	case DismissRejectDialog:
		if c.RejectDialog == nil || c.Flags.Rejecting {
			return nil
		}
		c.RejectDialog = nil
		m.state = c
		return nil

	case Reject:
		if c.RejectDialog == nil || c.RejectDialog.Reason == "" || c.Flags.Rejecting {
			return nil
		}
		c.Flags.Rejecting = true
		m.state = c
		return []command{rejectDocument{gen: m.gen, documentID: m.documentID, reason: c.RejectDialog.Reason}}

	case Reprocess:
		if c.Flags.Reprocessing {
			return nil
		}
		c.Flags.Reprocessing = true
		m.state = c
		return []command{reprocessDocument{gen: m.gen, documentID: m.documentID}}
	}

	return nil
}

// refresh re-fetches the record. Within one generation overlapping
// refreshes are all current, so no bump here except when retrying out of
// a failed load, which restarts the flow.
func (m *machine) refresh() []command {
	switch m.state.(type) {
	case Loading:
		// Initial fetch still in flight.
		return nil
	case LoadFailed:
		return m.start()
	default:
		return []command{fetchRecord{gen: m.gen, documentID: m.documentID, refresh: true}}
	}
}

func (m *machine) handleEvent(ev event) []command {
	switch e := ev.(type) {
	case recordFetched:
		if e.gen != m.gen {
			return nil
		}
		if e.err != nil {
			if !e.refresh {
				m.state = LoadFailed{DocumentID: m.documentID, Err: e.err}
			}
			return []command{emitAction{ShowError{Kind: ErrLoadFailed}}}
		}
		return m.applyRecord(e.record, e.refresh)

	case contactFetched:
		if e.gen != m.gen || e.err != nil {
			// On error the bare ID snapshot stays; the binding itself is
			// intact, only the display name is missing.
			return nil
		}
		c, ok := m.state.(Content)
		if !ok {
			return nil
		}
		if sel, selected := c.Contact.(SelectedContact); selected && sel.Contact.ID == e.contact.ID {
			c.Contact = SelectedContact{Contact: e.contact}
			m.state = c
		}
		return nil

	case pagesFetched:
		if e.gen != m.gen {
			return nil
		}
		c, ok := m.state.(Content)
		if !ok {
			return nil
		}
		c.Preview.Loading = false
		if e.err != nil {
			c.Preview.Failed = true
			m.state = c
			return []command{emitAction{ShowError{Kind: ErrPreviewLoadFailed}}}
		}
		if e.offset == c.Preview.NextOffset {
			pages := make([]model.Page, 0, len(c.Preview.Pages)+len(e.pages))
			pages = append(pages, c.Preview.Pages...)
			pages = append(pages, e.pages...)
			c.Preview.Pages = pages
			c.Preview.NextOffset += len(e.pages)
			if len(e.pages) < e.limit {
				c.Preview.Exhausted = true
			}
		}
		m.state = c
		return nil

	case draftPersisted:
		c, ok := m.state.(Content)
		if !ok {
			return nil
		}
		c.Flags.Saving = false
		if e.err != nil {
			m.state = c
			return []command{emitAction{ShowError{Kind: ErrSaveFailed}}}
		}
		if e.gen != m.gen {
			m.state = c
			return nil
		}
		c.Record = e.record
		if e.record.Draft != nil {
			c.Baseline = e.record.Draft.Data.Normalize()
		}
		c.Contact = mergeContact(c.Contact, e.record)
		m.state = c
		return []command{emitAction{DocumentSaved{}}}

	case contactBound:
		c, ok := m.state.(Content)
		if !ok {
			return nil
		}
		c.Flags.BindingContact = false
		if e.err != nil {
			m.state = c
			return []command{emitAction{ShowError{Kind: ErrContactBindFailed}}}
		}
		if e.gen != m.gen {
			m.state = c
			return nil
		}
		c.Record = e.record
		c.Contact = contactStateFor(e.record)
		m.state = c
		if id := linkedContactID(e.record); id != "" {
			return []command{fetchContact{gen: m.gen, contactID: id}}
		}
		return nil

	case contactCleared:
		c, ok := m.state.(Content)
		if !ok {
			return nil
		}
		c.Flags.BindingContact = false
		if e.err != nil {
			m.state = c
			return []command{emitAction{ShowError{Kind: ErrContactClearFailed}}}
		}
		if e.gen != m.gen {
			m.state = c
			return nil
		}
		c.Record = e.record
		// A retained suggestion resurfaces once the explicit link is gone.
		c.Contact = contactStateFor(e.record)
		m.state = c
		return nil

	case confirmFinished:
		c, ok := m.state.(Content)
		if !ok {
			return nil
		}
		c.Flags.Confirming = false
		m.state = c
		if e.err != nil {
			return []command{emitAction{ShowError{Kind: ErrConfirmFailed}}}
		}
		if e.gen != m.gen {
			return nil
		}
		return []command{
			emitAction{DocumentConfirmed{EntryID: e.entryID}},
			emitAction{NavigateBack{}},
		}

	case rejectFinished:
		c, ok := m.state.(Content)
		if !ok {
			return nil
		}
		c.Flags.Rejecting = false
		if e.err != nil {
			m.state = c
			return []command{emitAction{ShowError{Kind: ErrRejectFailed}}}
		}
		c.RejectDialog = nil
		m.state = c
		if e.gen != m.gen {
			return nil
		}
		return []command{
			emitAction{DocumentRejected{}},
			emitAction{NavigateBack{}},
		}

	case reprocessFinished:
		c, ok := m.state.(Content)
		if !ok {
			return nil
		}
		c.Flags.Reprocessing = false
		m.state = c
		if e.err != nil {
			return []command{emitAction{ShowError{Kind: ErrReprocessFailed}}}
		}
		if e.gen != m.gen {
			return nil
		}
		// Restart the flow on a new generation so anything still in
		// flight for the old content cannot land on the fresh run.
		m.gen++
		m.state = AwaitingExtraction{DocumentID: m.documentID, Record: c.Record}
		return []command{fetchRecord{gen: m.gen, documentID: m.documentID, refresh: true}}
	}

	return nil
}

// applyRecord folds a fresh snapshot into the machine. Extraction still
// running keeps or enters the waiting state; a settled run (succeeded or
// failed) shows the content surface, where a failed run is presented with
// an empty payload so the user can reprocess, reject or fill it in by
// hand.
func (m *machine) applyRecord(rec model.Record, refresh bool) []command {
	if rec.Ingestion == nil || rec.Ingestion.Status == model.IngestionPending || rec.Ingestion.Status == model.IngestionProcessing {
		m.state = AwaitingExtraction{DocumentID: m.documentID, Record: rec}
		return nil
	}

	if c, ok := m.state.(Content); ok && refresh {
		// Already on the surface: refresh the snapshot without resetting
		// the preview. Edits in progress are kept together with their
		// baseline; a clean surface adopts the server payload.
		c.Record = rec
		if !c.HasUnsavedChanges() {
			data := draftData(rec)
			c.Editable = data
			c.Baseline = data
		}
		if !c.Flags.BindingContact {
			c.Contact = mergeContact(c.Contact, rec)
		}
		m.state = c
		return nil
	}

	data := draftData(rec)
	c := Content{
		Record:   rec,
		Editable: data,
		Baseline: data,
		Contact:  contactStateFor(rec),
		Preview:  Preview{Loading: true},
	}
	m.state = c

	cmds := []command{fetchPages{gen: m.gen, documentID: m.documentID, offset: 0, limit: m.batchSize}}
	if id := linkedContactID(rec); id != "" {
		cmds = append(cmds, fetchContact{gen: m.gen, contactID: id})
	}
	return cmds
}

func draftData(rec model.Record) model.Editable {
	if rec.Draft != nil {
		return rec.Draft.Data.Normalize()
	}
	return model.EmptyFor(model.DocTypeUnknown)
}

func draftVersion(rec model.Record) int64 {
	if rec.Draft != nil {
		return rec.Draft.Version
	}
	return 0
}

func linkedContactID(rec model.Record) string {
	if rec.Draft != nil {
		return rec.Draft.LinkedContactID
	}
	return ""
}

func contactStateFor(rec model.Record) ContactState {
	if rec.Draft == nil {
		return NoContact{}
	}
	if rec.Draft.LinkedContactID != "" {
		return SelectedContact{Contact: model.Contact{ID: rec.Draft.LinkedContactID}}
	}
	if s := rec.Draft.Suggestion; s != nil {
		return SuggestedContact{Suggestion: *s}
	}
	return NoContact{}
}

// mergeContact keeps an already hydrated contact snapshot when the record
// still links the same contact, and otherwise re-derives the state.
func mergeContact(cur ContactState, rec model.Record) ContactState {
	next := contactStateFor(rec)
	sel, curSelected := cur.(SelectedContact)
	nextSel, nextSelected := next.(SelectedContact)
	if curSelected && nextSelected && sel.Contact.ID == nextSel.Contact.ID {
		return sel
	}
	return next
}
