// Package async wraps dispatch around calls to external collaborators: the
// job list provider, the AI material generator and the file uploader.
//
// The store itself never calls out. Each creator here emits
//
//	async/<name>/pending    before the call
//	async/<name>/fulfilled  after success
//	async/<name>/rejected   after failure (payload: error message)
//
// and holds ui.isLoading true for the duration. Timeouts and cancellation
// are the creator's responsibility and are applied to the context handed to
// collaborators.
package async
