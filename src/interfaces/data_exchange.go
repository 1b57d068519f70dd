package interfaces

import "stock-market-api/src/models"

// -----------------------------------------------------------------------------
// IDataExchanger defines the interface for pushing data to external listeners.
// -----------------------------------------------------------------------------

type IDataExchanger interface {

	// -----------------------------------------------------------------------------
	// BroadcastPriceUpdate pushes a price update event to connected clients.
	BroadcastPriceUpdate(update *models.MPriceUpdate)

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
