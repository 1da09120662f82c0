package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ellifont/NFT-platform/internal/entity"
	"github.com/ellifont/NFT-platform/internal/market"
	"github.com/ellifont/NFT-platform/internal/repository"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Server struct {
	engine      *market.Engine
	listingRepo repository.ListingRepository
	nftRepo     repository.NftRepository
	actionRepo  repository.ActionRepository

	adminToken string
	adminAddr  string
}

func NewServer(
	engine *market.Engine,
	listingRepo repository.ListingRepository,
	nftRepo repository.NftRepository,
	actionRepo repository.ActionRepository,
	adminToken string,
	adminAddr string,
) Server {
	return Server{engine, listingRepo, nftRepo, actionRepo, adminToken, adminAddr}
}

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleHomepage).Methods("GET")
	r.HandleFunc("/health", s.handleHealth).Methods("GET")

	r.HandleFunc("/listings", s.handleGetListings).Methods("GET")
	r.HandleFunc("/listings/{listingId}", s.handleGetListing).Methods("GET")
	r.HandleFunc("/nfts/{contractAddr}/{tokenId}", s.handleGetNft).Methods("GET")
	r.HandleFunc("/nfts/owner/{ownerAddr}", s.handleGetNftsByOwner).Methods("GET")
	r.HandleFunc("/editions/{contractAddr}/{typeId}", s.handleGetEdition).Methods("GET")
	r.HandleFunc("/actions/token/{contractAddr}/{tokenId}", s.handleGetTokenActions).Methods("GET")
	r.HandleFunc("/actions/address/{addr}", s.handleGetAddressActions).Methods("GET")

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(s.adminOnly)
	admin.HandleFunc("/fee", s.handleSetPlatformFee).Methods("POST")
	admin.HandleFunc("/recipient", s.handleSetFeeRecipient).Methods("POST")
	admin.HandleFunc("/pause", s.handlePause).Methods("POST")
	admin.HandleFunc("/unpause", s.handleUnpause).Methods("POST")
	admin.HandleFunc("/listings/{listingId}/cancel", s.handleCancelListing).Methods("POST")

	r.NotFoundHandler = notFoundHandler()

	return r
}

func (s Server) handleHomepage(w http.ResponseWriter, r *http.Request) {
	_, _ = fmt.Fprintf(w, "NFT Marketplace API")
}

func (s Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"paused":        s.engine.IsPaused(),
		"platformFee":   s.engine.PlatformFee(),
		"feeRecipient":  s.engine.FeeRecipient(),
		"totalListings": s.engine.TotalListings(),
	})
}

type pagedResponse struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
	Size  int         `json:"size"`
	Page  int         `json:"page"`
}

func (s Server) handleGetListings(w http.ResponseWriter, r *http.Request) {
	size, page := pagination(r)
	status := entity.ListingStatus(r.URL.Query().Get("status"))
	// Mirrored documents store lowercased addresses.
	seller := strings.ToLower(r.URL.Query().Get("seller"))
	standard := entity.Standard(r.URL.Query().Get("standard"))

	listings, total, err := s.listingRepo.GetListings(status, seller, standard, size, page)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to get listings")
		http.Error(w, "Failed to get listings", http.StatusInternalServerError)
		return
	}

	writeJson(w, http.StatusOK, pagedResponse{listings, total, size, page})
}

func (s Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	listingId, err := pathUint64(r, "listingId")
	if err != nil {
		http.Error(w, "Invalid listing id", http.StatusBadRequest)
		return
	}

	listing, err := s.listingRepo.GetListing(listingId)
	if err != nil {
		// Mirror may lag behind the engine.
		listing, err = s.engine.GetListing(listingId)
		if err != nil {
			http.Error(w, "Listing not found", http.StatusNotFound)
			return
		}
	}

	writeJson(w, http.StatusOK, listing)
}

func (s Server) handleGetNft(w http.ResponseWriter, r *http.Request) {
	contractAddr := strings.ToLower(mux.Vars(r)["contractAddr"])
	tokenId, err := pathUint64(r, "tokenId")
	if err != nil {
		http.Error(w, "Invalid token id", http.StatusBadRequest)
		return
	}

	nft, err := s.nftRepo.GetNft(contractAddr, tokenId)
	if err != nil {
		http.Error(w, "NFT not found", http.StatusNotFound)
		return
	}

	writeJson(w, http.StatusOK, nft)
}

func (s Server) handleGetNftsByOwner(w http.ResponseWriter, r *http.Request) {
	size, page := pagination(r)

	nfts, total, err := s.nftRepo.GetNftsByOwner(strings.ToLower(mux.Vars(r)["ownerAddr"]), size, page)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to get nfts by owner")
		http.Error(w, "Failed to get nfts", http.StatusInternalServerError)
		return
	}

	writeJson(w, http.StatusOK, pagedResponse{nfts, total, size, page})
}

func (s Server) handleGetEdition(w http.ResponseWriter, r *http.Request) {
	contractAddr := strings.ToLower(mux.Vars(r)["contractAddr"])
	typeId, err := pathUint64(r, "typeId")
	if err != nil {
		http.Error(w, "Invalid type id", http.StatusBadRequest)
		return
	}

	edition, err := s.nftRepo.GetEdition(contractAddr, typeId)
	if err != nil {
		http.Error(w, "Edition not found", http.StatusNotFound)
		return
	}

	writeJson(w, http.StatusOK, edition)
}

func (s Server) handleGetTokenActions(w http.ResponseWriter, r *http.Request) {
	contractAddr := strings.ToLower(mux.Vars(r)["contractAddr"])
	tokenId, err := pathUint64(r, "tokenId")
	if err != nil {
		http.Error(w, "Invalid token id", http.StatusBadRequest)
		return
	}
	size, page := pagination(r)

	actions, total, err := s.actionRepo.GetActionsByToken(contractAddr, tokenId, size, page)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to get token actions")
		http.Error(w, "Failed to get actions", http.StatusInternalServerError)
		return
	}

	writeJson(w, http.StatusOK, pagedResponse{actions, total, size, page})
}

func (s Server) handleGetAddressActions(w http.ResponseWriter, r *http.Request) {
	size, page := pagination(r)

	actions, total, err := s.actionRepo.GetActionsByAddress(strings.ToLower(mux.Vars(r)["addr"]), size, page)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to get address actions")
		http.Error(w, "Failed to get actions", http.StatusInternalServerError)
		return
	}

	writeJson(w, http.StatusOK, pagedResponse{actions, total, size, page})
}

func (s Server) handleSetPlatformFee(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Bps uint64 `json:"bps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.engine.SetPlatformFee(s.adminAddr, body.Bps); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJson(w, http.StatusOK, map[string]uint64{"bps": body.Bps})
}

func (s Server) handleSetFeeRecipient(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Recipient string `json:"recipient"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.engine.SetFeeRecipient(s.adminAddr, body.Recipient); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJson(w, http.StatusOK, map[string]string{"recipient": body.Recipient})
}

func (s Server) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Pause(s.adminAddr); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJson(w, http.StatusOK, map[string]bool{"paused": true})
}

func (s Server) handleUnpause(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Unpause(s.adminAddr); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJson(w, http.StatusOK, map[string]bool{"paused": false})
}

func (s Server) handleCancelListing(w http.ResponseWriter, r *http.Request) {
	listingId, err := pathUint64(r, "listingId")
	if err != nil {
		http.Error(w, "Invalid listing id", http.StatusBadRequest)
		return
	}

	if err := s.engine.Cancel(s.adminAddr, listingId); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJson(w, http.StatusOK, map[string]interface{}{"listingId": listingId, "status": entity.ListingCancelled})
}

func (s Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken == "" || r.Header.Get("Authorization") != "Bearer "+s.adminToken {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, market.ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, market.ErrListingNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, market.ErrListingNotActive):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, market.ErrFeeTooHigh), errors.Is(err, market.ErrInvalidRecipient):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		zap.L().With(zap.Error(err)).Error("Api: Engine call failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func pagination(r *http.Request) (int, int) {
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size < 1 || size > 100 {
		size = 20
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	return size, page
}

func pathUint64(r *http.Request, key string) (uint64, error) {
	value, ok := mux.Vars(r)[key]
	if !ok {
		return 0, errors.New("invalid parameters")
	}

	return strconv.ParseUint(value, 10, 64)
}

func writeJson(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func notFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprintf(w, "Page not found")
	})
}
