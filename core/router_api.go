package core

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

// APIDeps bundles everything the catalog/report server needs.
type APIDeps struct {
	Users    UserRepository
	Catalog  CatalogRepository
	Requests RequestLogRepository
	ErrorLog ErrorLogRepository
	Engine   *AnalyticsEngine
	Cache    *ReportCache
	Activity *ActivityLogger
}

// NewAPIRouter constructs the Gin engine for the catalog and reporting
// surface. Every /api/v1 route sits behind the user gate and the activity
// logger; mutations and reports additionally behind the admin gate.
func NewAPIRouter(cfg Config, deps APIDeps) *gin.Engine {
	startedAt := time.Now()
	r := gin.Default()

	r.Use(corsMiddleware(cfg))
	r.Use(ErrorBoundary(deps.ErrorLog))

	if cfg.StaticDir != "" {
		r.Use(static.Serve("/", static.LocalFile(cfg.StaticDir, false)))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(RequireUser(deps.Users), deps.Activity.Middleware())
	{
		api.GET("/records/all", func(c *gin.Context) {
			recs, err := deps.Catalog.ListAll(c.Request.Context())
			if err != nil {
				fail(c, DbErr("failed to list records", err))
				return
			}
			c.JSON(http.StatusOK, recordsOrEmpty(recs))
		})

		api.GET("/records", func(c *gin.Context) {
			after, count, err := parseListParams(c.Query("after"), c.Query("count"))
			if err != nil {
				fail(c, err)
				return
			}
			recs, err := deps.Catalog.List(c.Request.Context(), after, count)
			if err != nil {
				fail(c, DbErr("failed to list records", err))
				return
			}
			c.JSON(http.StatusOK, recordsOrEmpty(recs))
		})

		api.GET("/record/:id", func(c *gin.Context) {
			id, err := parseNumericID(c.Param("id"))
			if err != nil {
				fail(c, err)
				return
			}
			rec, err := deps.Catalog.Get(c.Request.Context(), id)
			if err != nil {
				fail(c, DbErr("failed to fetch record", err))
				return
			}
			if rec == nil {
				fail(c, NotFound("record not found"))
				return
			}
			c.JSON(http.StatusOK, rec)
		})

		// Mutations require the admin tier, independent of the user gate.
		mut := api.Group("")
		mut.Use(RequireAdmin(deps.Users))
		{
			mut.POST("/record", func(c *gin.Context) {
				var rec Record
				if err := c.ShouldBindJSON(&rec); err != nil {
					fail(c, BadRequest("invalid json body"))
					return
				}
				if rec.ID <= 0 {
					fail(c, BadRequest("a positive numeric id is required"))
					return
				}
				if err := deps.Catalog.Create(c.Request.Context(), rec); err != nil {
					if errors.Is(err, ErrDuplicateRecord) {
						fail(c, BadRequest("record already exists"))
						return
					}
					fail(c, DbErr("failed to create record", err))
					return
				}
				c.JSON(http.StatusCreated, gin.H{"newRecord": rec, "msg": "record created successfully"})
			})

			mut.PUT("/record/:id", func(c *gin.Context) {
				id, err := parseNumericID(c.Param("id"))
				if err != nil {
					fail(c, err)
					return
				}
				var rec Record
				if err := c.ShouldBindJSON(&rec); err != nil {
					fail(c, BadRequest("invalid json body"))
					return
				}
				rec.ID = id
				if err := deps.Catalog.Upsert(c.Request.Context(), rec); err != nil {
					fail(c, DbErr("failed to upsert record", err))
					return
				}
				c.JSON(http.StatusOK, gin.H{"updated": rec, "msg": "updated successfully"})
			})

			mut.PATCH("/record/:id", func(c *gin.Context) {
				id, err := parseNumericID(c.Param("id"))
				if err != nil {
					fail(c, err)
					return
				}
				var patch RecordPatch
				if err := c.ShouldBindJSON(&patch); err != nil {
					fail(c, BadRequest("invalid json body"))
					return
				}
				rec, err := deps.Catalog.Patch(c.Request.Context(), id, patch)
				if err != nil {
					fail(c, DbErr("failed to patch record", err))
					return
				}
				if rec == nil {
					fail(c, NotFound("record not found"))
					return
				}
				c.JSON(http.StatusOK, gin.H{"updated": rec, "msg": "updated successfully"})
			})

			mut.DELETE("/record/:id", func(c *gin.Context) {
				id, err := parseNumericID(c.Param("id"))
				if err != nil {
					fail(c, err)
					return
				}
				deleted, err := deps.Catalog.Delete(c.Request.Context(), id)
				if err != nil {
					fail(c, DbErr("failed to delete record", err))
					return
				}
				if !deleted {
					fail(c, NotFound("record not found"))
					return
				}
				c.JSON(http.StatusOK, gin.H{"deletedId": id, "msg": "record deleted successfully"})
			})
		}

		admin := api.Group("/admin")
		admin.Use(RequireAdmin(deps.Users))
		{
			admin.GET("/report/:reportid", func(c *gin.Context) {
				id, err := parseNumericID(c.Param("reportid"))
				if err != nil {
					fail(c, InvalidReport("report id must be numeric"))
					return
				}
				ctx := c.Request.Context()
				if rows := deps.Cache.Get(ctx, int(id)); rows != nil {
					c.JSON(http.StatusOK, rows)
					return
				}
				rows, err := deps.Engine.Build(ctx, int(id))
				if err != nil {
					fail(c, err)
					return
				}
				if rows == nil {
					rows = []ReportRow{}
				}
				deps.Cache.Put(ctx, int(id), rows)
				c.JSON(http.StatusOK, rows)
			})

			admin.GET("/system/status", func(c *gin.Context) {
				st, err := CollectSystemStatus(c.Request.Context(), deps.Requests, deps.ErrorLog, startedAt)
				if err != nil {
					fail(c, DbErr("failed to load system status", err))
					return
				}
				c.JSON(http.StatusOK, st)
			})
		}
	}

	return r
}

// corsMiddleware mirrors the permissive browser policy of the frontend: allow
// all origins unless an allow-list is configured.
func corsMiddleware(cfg Config) gin.HandlerFunc {
	conf := cors.DefaultConfig()
	conf.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	conf.AllowHeaders = []string{"Origin", "Content-Type", "auth-token"}
	conf.ExposeHeaders = []string{"auth-token"}
	if len(cfg.AllowedOrigins) > 0 {
		conf.AllowOrigins = cfg.AllowedOrigins
	} else {
		conf.AllowAllOrigins = true
	}
	return cors.New(conf)
}

func recordsOrEmpty(recs []Record) []Record {
	if recs == nil {
		return []Record{}
	}
	return recs
}
