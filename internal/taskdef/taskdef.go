package taskdef

import (
	"fmt"
	"strings"

	"dario.cat/mergo"

	"github.com/shaiso/Conductor/internal/domain"
	"github.com/shaiso/Conductor/internal/schema"
)

// DefaultOwnerEmail — идентичность сервиса по умолчанию.
const DefaultOwnerEmail = "fm-base-workers"

// Системные значения по умолчанию (совпадают с дефолтами сервера).
const (
	defaultRetryCount                  = 0
	defaultRetryDelaySeconds           = 0
	defaultTimeoutSeconds              = 0
	defaultResponseTimeoutSeconds      = 3600
	defaultRateLimitPerFrequency       = 0
	defaultRateLimitFrequencyInSeconds = 5
)

// Overrides — переопределяемые поля TaskDefinition.
//
// Все поля — указатели: nil значит "слой это поле не задаёт".
// Явный ноль (Ptr(0)) считается заданным значением.
type Overrides struct {
	RetryCount             *int                  `yaml:"retry_count"`
	TimeoutSeconds         *int                  `yaml:"timeout_seconds"`
	TimeoutPolicy          *domain.TimeoutPolicy `yaml:"timeout_policy"`
	RetryLogic             *domain.RetryLogic    `yaml:"retry_logic"`
	RetryDelaySeconds      *int                  `yaml:"retry_delay_seconds"`
	ResponseTimeoutSeconds *int                  `yaml:"response_timeout_seconds"`
	ConcurrentExecLimit    *int                  `yaml:"concurrent_exec_limit"`
	InputTemplate          *map[string]any       `yaml:"input_template"`

	RateLimitPerFrequency       *int `yaml:"rate_limit_per_frequency"`
	RateLimitFrequencyInSeconds *int `yaml:"rate_limit_frequency_in_seconds"`

	IsolationGroupID   *string `yaml:"isolation_group_id"`
	ExecutionNameSpace *string `yaml:"execution_name_space"`
	OwnerEmail         *string `yaml:"owner_email"`
	PollTimeoutSeconds *int    `yaml:"poll_timeout_seconds"`
	BackoffScaleFactor *int    `yaml:"backoff_scale_factor"`
	LimitToThreadCount *int    `yaml:"limit_to_thread_count"`
}

// Template — именованный набор переопределений.
//
// Шаблоны задаются один раз на процесс (например, из config-файла)
// и применяются к нескольким воркерам.
type Template struct {
	Name      string    `yaml:"name"`
	Overrides Overrides `yaml:",inline"`
}

// Declaration — то, что воркер объявляет о себе явно.
type Declaration struct {
	Name        string
	Description string
	Labels      []string
	RBAC        []string
	Overrides   Overrides
}

// Ptr возвращает указатель на значение. Удобно для заполнения Overrides.
func Ptr[T any](v T) *T {
	return &v
}

// SystemDefaults возвращает базовый слой.
func SystemDefaults(ownerEmail string) Overrides {
	if ownerEmail == "" {
		ownerEmail = DefaultOwnerEmail
	}
	return Overrides{
		RetryCount:                  Ptr(defaultRetryCount),
		TimeoutSeconds:              Ptr(defaultTimeoutSeconds),
		TimeoutPolicy:               Ptr(domain.TimeoutPolicyAlertOnly),
		RetryLogic:                  Ptr(domain.RetryLogicFixed),
		RetryDelaySeconds:           Ptr(defaultRetryDelaySeconds),
		ResponseTimeoutSeconds:      Ptr(defaultResponseTimeoutSeconds),
		RateLimitPerFrequency:       Ptr(defaultRateLimitPerFrequency),
		RateLimitFrequencyInSeconds: Ptr(defaultRateLimitFrequencyInSeconds),
		OwnerEmail:                  Ptr(ownerEmail),
	}
}

// Option настраивает Build.
type Option func(*options)

type options struct {
	ownerEmail string
}

// WithOwnerEmail задаёт owner_email системного слоя.
func WithOwnerEmail(email string) Option {
	return func(o *options) {
		o.ownerEmail = email
	}
}

// Build собирает TaskDefinition.
//
// Проверяет имя и обе схемы, затем мержит слои
// system → tmpl → decl.Overrides. tmpl может быть nil.
//
// Функция чистая: входные значения не изменяются,
// результат не разделяет указатели с входными слоями.
func Build(decl Declaration, input, output *schema.Schema, tmpl *Template, opts ...Option) (*domain.TaskDefinition, error) {
	o := options{ownerEmail: DefaultOwnerEmail}
	for _, opt := range opts {
		opt(&o)
	}

	name := strings.TrimSpace(decl.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	if err := input.Check(); err != nil {
		return nil, fmt.Errorf("input of %s: %w", name, err)
	}
	if err := output.Check(); err != nil {
		return nil, fmt.Errorf("output of %s: %w", name, err)
	}

	merged, err := Merge(SystemDefaults(o.ownerEmail), tmpl, decl.Overrides)
	if err != nil {
		return nil, err
	}

	description, err := domain.DescriptionMeta{
		Description: decl.Description,
		Labels:      decl.Labels,
		RBAC:        decl.RBAC,
	}.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode description of %s: %w", name, err)
	}

	def := apply(merged)
	def.Name = name
	def.Description = description
	def.InputKeys = input.Keys()
	def.OutputKeys = output.Keys()

	return def, nil
}

// Merge накладывает шаблон и явные переопределения на базовый слой.
//
// Заданное (не nil) поле верхнего слоя заменяет поле нижнего целиком.
func Merge(base Overrides, tmpl *Template, explicit Overrides) (Overrides, error) {
	layers := []Overrides{explicit}
	if tmpl != nil {
		layers = []Overrides{tmpl.Overrides, explicit}
	}

	for _, layer := range layers {
		if err := mergo.Merge(&base, layer, mergo.WithOverride, mergo.WithoutDereference); err != nil {
			return Overrides{}, fmt.Errorf("%w: %v", ErrMerge, err)
		}
	}
	return base, nil
}

// apply переносит значения в TaskDefinition, копируя их.
func apply(o Overrides) *domain.TaskDefinition {
	def := &domain.TaskDefinition{
		RetryCount:                  deref(o.RetryCount),
		TimeoutSeconds:              deref(o.TimeoutSeconds),
		TimeoutPolicy:               deref(o.TimeoutPolicy),
		RetryLogic:                  deref(o.RetryLogic),
		RetryDelaySeconds:           deref(o.RetryDelaySeconds),
		ResponseTimeoutSeconds:      deref(o.ResponseTimeoutSeconds),
		RateLimitPerFrequency:       deref(o.RateLimitPerFrequency),
		RateLimitFrequencyInSeconds: deref(o.RateLimitFrequencyInSeconds),
		IsolationGroupID:            deref(o.IsolationGroupID),
		ExecutionNameSpace:          deref(o.ExecutionNameSpace),
		OwnerEmail:                  deref(o.OwnerEmail),
		ConcurrentExecLimit:         clone(o.ConcurrentExecLimit),
		PollTimeoutSeconds:          clone(o.PollTimeoutSeconds),
		BackoffScaleFactor:          clone(o.BackoffScaleFactor),
		LimitToThreadCount:          clone(o.LimitToThreadCount),
	}

	if o.InputTemplate != nil && *o.InputTemplate != nil {
		def.InputTemplate = make(map[string]any, len(*o.InputTemplate))
		for k, v := range *o.InputTemplate {
			def.InputTemplate[k] = v
		}
	}

	return def
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
