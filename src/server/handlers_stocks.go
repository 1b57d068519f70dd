package server

import (
	"fmt"
	"strings"

	"stock-market-api/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Stock CRUD handlers
// -----------------------------------------------------------------------------

func (s *APIServer) createStock(c *gin.Context) {
	var body models.MStockCreate
	if err := c.ShouldBindJSON(&body); err != nil {
		abortDetail(c, 422, err.Error())
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(body.Symbol))

	existing, err := s.Store.GetStockBySymbol(symbol)
	if err != nil {
		abortDetail(c, 500, "Database error")
		return
	}
	if existing != nil {
		abortDetail(c, 400, "Stock with this symbol already exists")
		return
	}

	stock, err := s.Store.CreateStock(&models.MStock{
		Symbol:   symbol,
		Name:     body.Name,
		Sector:   body.Sector,
		Industry: body.Industry,
		Exchange: body.Exchange,
		IsActive: true,
	})
	if err != nil {
		s.Logger.Error("stock create failed: %v", err)
		abortDetail(c, 500, "Database error")
		return
	}

	c.JSON(201, stock)
}

// -----------------------------------------------------------------------------

func (s *APIServer) listStocks(c *gin.Context) {
	skip := queryInt(c, "skip", 0, 0, 1<<30)
	limit := queryInt(c, "limit", 100, 1, 500)
	activeOnly := c.DefaultQuery("active_only", "true") != "false"

	stocks, err := s.Store.ListStocks(skip, limit, activeOnly)
	if err != nil {
		abortDetail(c, 500, "Database error")
		return
	}
	c.JSON(200, stocks)
}

// -----------------------------------------------------------------------------

func (s *APIServer) searchStocks(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		abortDetail(c, 422, "Query parameter 'q' is required")
		return
	}

	stocks, err := s.Store.SearchStocks(q, 50)
	if err != nil {
		abortDetail(c, 500, "Database error")
		return
	}
	c.JSON(200, stocks)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getStock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	stock, err := s.Store.GetStockByID(id)
	if err != nil {
		abortDetail(c, 500, "Database error")
		return
	}
	if stock == nil {
		abortDetail(c, 404, "Stock not found")
		return
	}
	c.JSON(200, stock)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getStockBySymbol(c *gin.Context) {
	symbol := c.Param("symbol")

	stock, err := s.Store.GetStockBySymbol(symbol)
	if err != nil {
		abortDetail(c, 500, "Database error")
		return
	}
	if stock == nil {
		abortDetail(c, 404, "Stock not found")
		return
	}
	c.JSON(200, stock)
}

// -----------------------------------------------------------------------------

// fetchStock registers a stock by pulling its metadata from the external
// providers.
func (s *APIServer) fetchStock(c *gin.Context) {
	symbol := c.Param("symbol")

	stock, err := s.Collector.EnsureStock(c.Request.Context(), symbol)
	if err != nil {
		s.Logger.Error("stock fetch failed for %s: %v", symbol, err)
		abortDetail(c, 500, "Database error")
		return
	}
	if stock == nil {
		abortDetail(c, 404, fmt.Sprintf("Stock %s not found in external sources", symbol))
		return
	}
	c.JSON(200, stock)
}

// -----------------------------------------------------------------------------

func (s *APIServer) updateStock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var body models.MStockUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		abortDetail(c, 422, err.Error())
		return
	}

	stock, err := s.Store.UpdateStock(id, &body)
	if err != nil {
		abortDetail(c, 500, "Database error")
		return
	}
	if stock == nil {
		abortDetail(c, 404, "Stock not found")
		return
	}
	c.JSON(200, stock)
}

// -----------------------------------------------------------------------------

func (s *APIServer) deleteStock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	deleted, err := s.Store.DeleteStock(id)
	if err != nil {
		abortDetail(c, 500, "Database error")
		return
	}
	if !deleted {
		abortDetail(c, 404, "Stock not found")
		return
	}
	c.Status(204)
}
