// Package where evaluates SOQL-style where-clauses against records.
//
// A clause arrives from the query parser as a flattened token sequence:
// conditions (field, operator, literal), the connectives AND and OR, and
// nested sequences for parenthesised groups. Evaluation is a left-to-right
// fold: every connective combines the result accumulated so far with the
// next operand, and only explicit nesting changes grouping.
//
// Literals are coerced once per condition. Quoted text becomes a string;
// null, true and false become their typed values; TODAY, TOMORROW and
// YESTERDAY become calendar dates; THIS_MONTH, NEXT_MONTH and LAST_MONTH
// compare against the first day of the field's month. The current date is
// supplied by a replaceable source (see WithToday).
//
// A missing field never matches and is not an error. Unsupported operators
// and malformed sequences produce a *MalformedQueryError.
package where
