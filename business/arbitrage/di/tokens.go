// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/fd1az/triarb/business/arbitrage/app"
	"github.com/fd1az/triarb/business/arbitrage/infra/httpapi"
	"github.com/fd1az/triarb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Scanner     = di.NewToken[*app.Scanner]("arbitrage.Scanner")
	ScanService = di.NewToken[*app.ScanService]("arbitrage.ScanService")
	ScanHandler = di.NewToken[*httpapi.Handler]("arbitrage.ScanHandler")
)

func GetScanner(c di.ServiceRegistry) *app.Scanner {
	return di.GetToken(c, Scanner)
}

func GetScanService(c di.ServiceRegistry) *app.ScanService {
	return di.GetToken(c, ScanService)
}

func GetScanHandler(c di.ServiceRegistry) *httpapi.Handler {
	return di.GetToken(c, ScanHandler)
}
