package tinystore

//go:generate go run ./codegen -w

// Derive1 is Dependent with 1 typed upstream(s)
func Derive1[T any, D1 any](
	r *Registry,
	d1 Source[D1],
	loader func(D1) Resolvable[T],
	opts ...DeriveOption,
) *LazyStore[T] {
	return Dependent(r, []Upstream{d1}, func(values []any) Resolvable[T] {
		v1, err := SafeTypeAssertion[D1](values[0])
		if err != nil {
			return Fail[T](err)
		}
		return loader(v1)
	}, opts...)
}

// Derive2 is Dependent with 2 typed upstream(s)
func Derive2[T any, D1 any, D2 any](
	r *Registry,
	d1 Source[D1],
	d2 Source[D2],
	loader func(D1, D2) Resolvable[T],
	opts ...DeriveOption,
) *LazyStore[T] {
	return Dependent(r, []Upstream{d1, d2}, func(values []any) Resolvable[T] {
		v1, err := SafeTypeAssertion[D1](values[0])
		if err != nil {
			return Fail[T](err)
		}
		v2, err := SafeTypeAssertion[D2](values[1])
		if err != nil {
			return Fail[T](err)
		}
		return loader(v1, v2)
	}, opts...)
}

// Derive3 is Dependent with 3 typed upstream(s)
func Derive3[T any, D1 any, D2 any, D3 any](
	r *Registry,
	d1 Source[D1],
	d2 Source[D2],
	d3 Source[D3],
	loader func(D1, D2, D3) Resolvable[T],
	opts ...DeriveOption,
) *LazyStore[T] {
	return Dependent(r, []Upstream{d1, d2, d3}, func(values []any) Resolvable[T] {
		v1, err := SafeTypeAssertion[D1](values[0])
		if err != nil {
			return Fail[T](err)
		}
		v2, err := SafeTypeAssertion[D2](values[1])
		if err != nil {
			return Fail[T](err)
		}
		v3, err := SafeTypeAssertion[D3](values[2])
		if err != nil {
			return Fail[T](err)
		}
		return loader(v1, v2, v3)
	}, opts...)
}

// Derive4 is Dependent with 4 typed upstream(s)
func Derive4[T any, D1 any, D2 any, D3 any, D4 any](
	r *Registry,
	d1 Source[D1],
	d2 Source[D2],
	d3 Source[D3],
	d4 Source[D4],
	loader func(D1, D2, D3, D4) Resolvable[T],
	opts ...DeriveOption,
) *LazyStore[T] {
	return Dependent(r, []Upstream{d1, d2, d3, d4}, func(values []any) Resolvable[T] {
		v1, err := SafeTypeAssertion[D1](values[0])
		if err != nil {
			return Fail[T](err)
		}
		v2, err := SafeTypeAssertion[D2](values[1])
		if err != nil {
			return Fail[T](err)
		}
		v3, err := SafeTypeAssertion[D3](values[2])
		if err != nil {
			return Fail[T](err)
		}
		v4, err := SafeTypeAssertion[D4](values[3])
		if err != nil {
			return Fail[T](err)
		}
		return loader(v1, v2, v3, v4)
	}, opts...)
}

// Derive5 is Dependent with 5 typed upstream(s)
func Derive5[T any, D1 any, D2 any, D3 any, D4 any, D5 any](
	r *Registry,
	d1 Source[D1],
	d2 Source[D2],
	d3 Source[D3],
	d4 Source[D4],
	d5 Source[D5],
	loader func(D1, D2, D3, D4, D5) Resolvable[T],
	opts ...DeriveOption,
) *LazyStore[T] {
	return Dependent(r, []Upstream{d1, d2, d3, d4, d5}, func(values []any) Resolvable[T] {
		v1, err := SafeTypeAssertion[D1](values[0])
		if err != nil {
			return Fail[T](err)
		}
		v2, err := SafeTypeAssertion[D2](values[1])
		if err != nil {
			return Fail[T](err)
		}
		v3, err := SafeTypeAssertion[D3](values[2])
		if err != nil {
			return Fail[T](err)
		}
		v4, err := SafeTypeAssertion[D4](values[3])
		if err != nil {
			return Fail[T](err)
		}
		v5, err := SafeTypeAssertion[D5](values[4])
		if err != nil {
			return Fail[T](err)
		}
		return loader(v1, v2, v3, v4, v5)
	}, opts...)
}
