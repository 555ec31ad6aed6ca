// Package api exposes the expression engine over a small REST surface:
// evaluation, differentiation, integration, root finding, function
// definitions, matrix operations, and configuration.
package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/quillmath/quill/pkg/matrix"
	"github.com/quillmath/quill/pkg/runtime"
	"github.com/quillmath/quill/pkg/types"
)

// Server is the HTTP API server.
type Server struct {
	app    *fiber.App
	engine *runtime.Engine
}

// New creates a server over the given engine.
func New(engine *runtime.Engine) *Server {
	srv := &Server{engine: engine}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	app.Post("/v1/evaluate", srv.evaluate)
	app.Post("/v1/differentiate", srv.differentiate)
	app.Post("/v1/integrate", srv.integrate)
	app.Post("/v1/roots", srv.findRoots)

	app.Post("/v1/functions", srv.defineFunction)
	app.Get("/v1/functions", srv.listFunctions)

	app.Post("/v1/matrix/rowreduce", srv.matrixOp(rowReduce))
	app.Post("/v1/matrix/echelon", srv.matrixOp(echelon))
	app.Post("/v1/matrix/inverse", srv.matrixOp(inverse))
	app.Post("/v1/matrix/determinant", srv.determinant)
	app.Post("/v1/matrix/charpoly", srv.charPoly)

	app.Get("/v1/config", srv.getConfig)
	app.Patch("/v1/config", srv.updateConfig)

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

type expressionRequest struct {
	Expression string `json:"expression"`
	Variable   string `json:"variable"`
}

func (s *Server) evaluate(c *fiber.Ctx) error {
	req, err := parseExpression(c)
	if err != nil {
		return writeError(c, err)
	}
	t, err := s.engine.Evaluate(req.Expression)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"result": t.String()})
}

func (s *Server) differentiate(c *fiber.Ctx) error {
	req, err := parseExpression(c)
	if err != nil {
		return writeError(c, err)
	}
	t, err := s.engine.Differentiate(req.Expression, variableOrX(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"result": t.String()})
}

func (s *Server) integrate(c *fiber.Ctx) error {
	req, err := parseExpression(c)
	if err != nil {
		return writeError(c, err)
	}
	t, err := s.engine.Integrate(req.Expression, variableOrX(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"result": t.String()})
}

func (s *Server) findRoots(c *fiber.Ctx) error {
	req, err := parseExpression(c)
	if err != nil {
		return writeError(c, err)
	}
	roots, err := s.engine.FindRoots(req.Expression, variableOrX(req))
	if err != nil {
		return writeError(c, err)
	}
	out := make([]string, len(roots))
	for i, r := range roots {
		out[i] = r.String()
	}
	return c.JSON(fiber.Map{"roots": out})
}

type defineFunctionRequest struct {
	Definition string `json:"definition"`
}

func (s *Server) defineFunction(c *fiber.Ctx) error {
	var req defineFunctionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Definition == "" {
		return badRequest(c, "definition is required")
	}
	fd, err := s.engine.DefineFunction(req.Definition)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"name":       fd.Name,
		"parameters": fd.Params,
		"definition": fd.Source,
	})
}

func (s *Server) listFunctions(c *fiber.Ctx) error {
	fds := s.engine.Functions()
	out := make([]fiber.Map, 0, len(fds))
	for _, fd := range fds {
		out = append(out, fiber.Map{
			"name":       fd.Name,
			"parameters": fd.Params,
			"definition": fd.Source,
		})
	}
	return c.JSON(fiber.Map{"functions": out})
}

type matrixRequest struct {
	Matrix string `json:"matrix"`
}

type matrixFunc func(*runtime.Engine, string) (*matrix.Matrix, error)

func rowReduce(e *runtime.Engine, in string) (*matrix.Matrix, error) { return e.RowReduce(in) }
func echelon(e *runtime.Engine, in string) (*matrix.Matrix, error)   { return e.Echelon(in) }
func inverse(e *runtime.Engine, in string) (*matrix.Matrix, error)   { return e.Inverse(in) }

func (s *Server) matrixOp(op matrixFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := parseMatrixRequest(c)
		if err != nil {
			return writeError(c, err)
		}
		m, err := op(s.engine, in)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"matrix": m.String()})
	}
}

func (s *Server) determinant(c *fiber.Ctx) error {
	in, err := parseMatrixRequest(c)
	if err != nil {
		return writeError(c, err)
	}
	t, err := s.engine.Determinant(in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"result": t.String()})
}

func (s *Server) charPoly(c *fiber.Ctx) error {
	in, err := parseMatrixRequest(c)
	if err != nil {
		return writeError(c, err)
	}
	t, err := s.engine.CharPoly(in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"result": t.String()})
}

func (s *Server) getConfig(c *fiber.Ctx) error {
	cfg := s.engine.Config()
	return c.JSON(fiber.Map{
		"precision":  cfg.Precision,
		"angle_mode": cfg.Angle.String(),
	})
}

type configRequest struct {
	Precision *int    `json:"precision"`
	AngleMode *string `json:"angle_mode"`
}

func (s *Server) updateConfig(c *fiber.Ctx) error {
	var req configRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Precision != nil {
		if *req.Precision <= 0 {
			return badRequest(c, "precision must be positive")
		}
		s.engine.SetPrecision(*req.Precision)
	}
	if req.AngleMode != nil {
		switch *req.AngleMode {
		case "radians":
			s.engine.SetAngleMode(types.Radians)
		case "degrees":
			s.engine.SetAngleMode(types.Degrees)
		default:
			return badRequest(c, "angle_mode must be radians or degrees")
		}
	}
	return s.getConfig(c)
}

func parseExpression(c *fiber.Ctx) (expressionRequest, error) {
	var req expressionRequest
	if err := c.BodyParser(&req); err != nil {
		return req, types.NewParseError("invalid request body")
	}
	if req.Expression == "" {
		return req, types.NewParseError("expression is required")
	}
	return req, nil
}

func parseMatrixRequest(c *fiber.Ctx) (string, error) {
	var req matrixRequest
	if err := c.BodyParser(&req); err != nil {
		return "", types.NewParseError("invalid request body")
	}
	if req.Matrix == "" {
		return "", types.NewParseError("matrix is required")
	}
	return req.Matrix, nil
}

func variableOrX(req expressionRequest) string {
	if req.Variable != "" {
		return req.Variable
	}
	return "x"
}

// writeError maps the error taxonomy onto HTTP statuses: malformed
// input is 400, unknown identifiers 404, duplicate definitions 409,
// singular matrices and non-convergence 422, everything else 500.
func writeError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var me *types.MathError
	if errors.As(err, &me) {
		switch {
		case me.HasTag(types.TagLexicalError),
			me.HasTag(types.TagParseError),
			me.HasTag(types.TagArityError),
			me.HasTag(types.TagDivisionError):
			status = fiber.StatusBadRequest
		case me.HasTag(types.TagUnknownIdentifierError):
			status = fiber.StatusNotFound
		case me.HasTag(types.TagDefinitionError):
			status = fiber.StatusConflict
		case me.HasTag(types.TagSingularMatrixError),
			me.HasTag(types.TagConvergenceError):
			status = fiber.StatusUnprocessableEntity
		}
	}
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    status,
			"message": err.Error(),
		},
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    fiber.StatusBadRequest,
			"message": msg,
		},
	})
}
