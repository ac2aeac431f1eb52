package documents

var (
	// ErrNotFound is returned when a document does not exist in the workspace.
	ErrNotFound = errNotFound{}
	// ErrDraftNotFound is returned when a document has no draft yet.
	ErrDraftNotFound = errDraftNotFound{}
	// ErrInvalidInput is returned for malformed or missing request data.
	ErrInvalidInput = errInvalidInput{}
	// ErrVersionConflict is returned when a draft write carries a stale version.
	ErrVersionConflict = errVersionConflict{}
	// ErrDraftFinalized is returned when mutating a confirmed or rejected draft.
	ErrDraftFinalized = errDraftFinalized{}
	// ErrNotConfirmable is returned when validation blocks confirmation.
	ErrNotConfirmable = errNotConfirmable{}
	// ErrUnsupportedFileType is returned for uploads outside the PDF/image allowlist.
	ErrUnsupportedFileType = errUnsupportedFileType{}
	// ErrIngestionInProgress is returned when a reprocess overlaps a running extraction.
	ErrIngestionInProgress = errIngestionInProgress{}
	// ErrObjectMissing is returned when a presigned upload is completed but the
	// object never arrived in the store.
	ErrObjectMissing = errObjectMissing{}
)

type errNotFound struct{}

func (errNotFound) Error() string { return "document not found" }

type errDraftNotFound struct{}

func (errDraftNotFound) Error() string { return "draft not found" }

type errInvalidInput struct{}

func (errInvalidInput) Error() string { return "invalid input" }

type errVersionConflict struct{}

func (errVersionConflict) Error() string { return "draft version conflict" }

type errDraftFinalized struct{}

func (errDraftFinalized) Error() string { return "draft already confirmed or rejected" }

type errNotConfirmable struct{}

func (errNotConfirmable) Error() string { return "draft is not confirmable" }

type errUnsupportedFileType struct{}

func (errUnsupportedFileType) Error() string { return "unsupported file type" }

type errIngestionInProgress struct{}

func (errIngestionInProgress) Error() string { return "ingestion already in progress" }

type errObjectMissing struct{}

func (errObjectMissing) Error() string { return "uploaded object not found in store" }
